package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/planmarket/auth-service/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session with this refresh token already exists")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	UserRepository
	SessionRepository

	// ChangePassword swaps the user's password hash and invalidates every
	// other session in one atomic step, so a stolen refresh token cannot
	// outlive the password it was issued under.
	ChangePassword(ctx context.Context, userID, newHash, exceptSessionID string) (int64, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// SessionRepository takes raw refresh tokens and hashes them internally;
// the raw value never reaches the store.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	FindValidSession(ctx context.Context, refreshToken string) (*models.Session, error)
	InvalidateSession(ctx context.Context, refreshToken string) (bool, error)
	InvalidateAllForUser(ctx context.Context, userID, exceptSessionID string) (int64, error)
	SetCSRFToken(ctx context.Context, sessionID, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type TokenBlacklist interface {
	InvalidateToken(ctx context.Context, token string, expiration time.Duration) error
	IsTokenInvalidated(ctx context.Context, token string) (bool, error)
}

// HashToken is the lookup key derivation for refresh tokens. Storing only the
// hash means a leaked sessions table does not leak usable credentials.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
