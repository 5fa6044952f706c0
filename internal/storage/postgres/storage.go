package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

type Storage struct {
	db *sql.DB
	*UserRepository
	*SessionRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                db,
		UserRepository:    NewUserRepository(db),
		SessionRepository: NewSessionRepository(db),
	}
}

// ChangePassword выполняет смену пароля и массовую инвалидацию сессий
// в одной транзакции. Сессия exceptSessionID (если задана) переживает смену,
// чтобы пользователь не разлогинил сам себя.
func (s *Storage) ChangePassword(ctx context.Context, userID, newHash, exceptSessionID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	userRepoTx := NewUserRepository(tx)
	sessionRepoTx := NewSessionRepository(tx)

	if err := userRepoTx.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return 0, fmt.Errorf("failed to update password hash in tx: %w", err)
	}

	count, err := sessionRepoTx.InvalidateAllForUser(ctx, userID, exceptSessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate sessions in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return count, nil
}
