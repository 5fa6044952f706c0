package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/storage"
)

const uniqueViolation = "23505"

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (id, user_id, token_hash, csrf_token, user_agent, client_ip, is_valid, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.CSRFToken,
		session.UserAgent,
		session.IPAddress,
		session.IsValid,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrDuplicateSession
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// FindValidSession enforces expiry at read time: a row still marked valid but
// past expires_at is reported as not found.
func (r *SessionRepository) FindValidSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	query := `SELECT id, user_id, token_hash, csrf_token, user_agent, client_ip, is_valid, created_at, expires_at
		FROM sessions WHERE token_hash = $1 AND is_valid = TRUE AND expires_at > NOW()`
	err := r.db.QueryRowContext(ctx, query, storage.HashToken(refreshToken)).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.CSRFToken,
		&session.UserAgent,
		&session.IPAddress,
		&session.IsValid,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// InvalidateSession помечает сессию невалидной. Идемпотентна: повторный вызов
// вернет false, т.к. строка уже не в состоянии is_valid = TRUE.
func (r *SessionRepository) InvalidateSession(ctx context.Context, refreshToken string) (bool, error) {
	query := `UPDATE sessions SET is_valid = FALSE WHERE token_hash = $1 AND is_valid = TRUE`
	res, err := r.db.ExecContext(ctx, query, storage.HashToken(refreshToken))
	if err != nil {
		return false, fmt.Errorf("failed to invalidate session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) InvalidateAllForUser(ctx context.Context, userID, exceptSessionID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if exceptSessionID == "" {
		query := `UPDATE sessions SET is_valid = FALSE WHERE user_id = $1 AND is_valid = TRUE`
		res, err = r.db.ExecContext(ctx, query, userID)
	} else {
		query := `UPDATE sessions SET is_valid = FALSE WHERE user_id = $1 AND is_valid = TRUE AND id <> $2`
		res, err = r.db.ExecContext(ctx, query, userID, exceptSessionID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate user sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

func (r *SessionRepository) SetCSRFToken(ctx context.Context, sessionID, token string) error {
	query := `UPDATE sessions SET csrf_token = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID, token)
	if err != nil {
		return fmt.Errorf("failed to set csrf token: %w", err)
	}
	return nil
}

// DeleteExpired is storage hygiene only; correctness never depends on it
// because FindValidSession checks expires_at itself.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}
