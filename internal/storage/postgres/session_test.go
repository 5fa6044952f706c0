package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/storage"
)

func newMock(t *testing.T) (*SessionRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewSessionRepository(db), mock
}

func TestSessionRepository_CreateSession(t *testing.T) {
	repo, mock := newMock(t)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := models.Session{
		ID:        "sid1",
		UserID:    "u1",
		TokenHash: storage.HashToken("tok1"),
		CSRFToken: "csrf1",
		UserAgent: "agent",
		IPAddress: "10.0.0.1",
		IsValid:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.UserID, session.TokenHash, session.CSRFToken,
			session.UserAgent, session.IPAddress, session.IsValid, session.CreatedAt, session.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSessionRepository_FindValidSession(t *testing.T) {
	repo, mock := newMock(t)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	hash := storage.HashToken("tok1")

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "csrf_token", "user_agent", "client_ip", "is_valid", "created_at", "expires_at",
	}).AddRow("sid1", "u1", hash, "csrf1", "agent", "10.0.0.1", true, now, now.Add(time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE token_hash").
		WithArgs(hash).
		WillReturnRows(rows)

	session, err := repo.FindValidSession(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("FindValidSession() error: %v", err)
	}
	if session.ID != "sid1" || session.UserID != "u1" || session.CSRFToken != "csrf1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSessionRepository_FindValidSession_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE token_hash").
		WithArgs(storage.HashToken("missing")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "token_hash", "csrf_token", "user_agent", "client_ip", "is_valid", "created_at", "expires_at",
		}))

	_, err := repo.FindValidSession(context.Background(), "missing")
	if err != storage.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepository_InvalidateSession(t *testing.T) {
	repo, mock := newMock(t)

	hash := storage.HashToken("tok1")

	mock.ExpectExec("UPDATE sessions SET is_valid = FALSE WHERE token_hash").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sessions SET is_valid = FALSE WHERE token_hash").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.InvalidateSession(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("InvalidateSession() error: %v", err)
	}
	if !changed {
		t.Fatal("first invalidation must report a change")
	}

	changed, err = repo.InvalidateSession(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("InvalidateSession() error: %v", err)
	}
	if changed {
		t.Fatal("repeated invalidation must report no change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSessionRepository_InvalidateAllForUser(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE sessions SET is_valid = FALSE WHERE user_id = (.+) AND is_valid = TRUE AND id <>").
		WithArgs("u1", "keep-me").
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.InvalidateAllForUser(context.Background(), "u1", "keep-me")
	if err != nil {
		t.Fatalf("InvalidateAllForUser() error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 invalidated sessions, got %d", count)
	}
}

func TestSessionRepository_InvalidateAllForUser_NoExclusion(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE sessions SET is_valid = FALSE WHERE user_id = (.+) AND is_valid = TRUE$").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.InvalidateAllForUser(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("InvalidateAllForUser() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 invalidated sessions, got %d", count)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo, mock := newMock(t)

	before := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 5))

	count, err := repo.DeleteExpired(context.Background(), before)
	if err != nil {
		t.Fatalf("DeleteExpired() error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 deleted sessions, got %d", count)
	}
}

func TestStorage_ChangePasswordTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	s := NewStorage(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("u1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sessions SET is_valid = FALSE WHERE user_id").
		WithArgs("u1", "current-session").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	count, err := s.ChangePassword(context.Background(), "u1", "new-hash", "current-session")
	if err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 invalidated sessions, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
