package memory

import "context"

// Storage bundles the in-memory managers into the same surface the Postgres
// storage exposes.
type Storage struct {
	*UserManager
	*SessionManager
}

func NewStorage() *Storage {
	return &Storage{
		UserManager:    NewUserManager(),
		SessionManager: NewSessionManager(),
	}
}

func (s *Storage) ChangePassword(ctx context.Context, userID, newHash, exceptSessionID string) (int64, error) {
	if err := s.UserManager.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return 0, err
	}
	return s.SessionManager.InvalidateAllForUser(ctx, userID, exceptSessionID)
}
