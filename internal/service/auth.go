package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/csrf"
	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/storage"
	"github.com/planmarket/auth-service/internal/util"
)

// ErrInvalidCredentials covers both unknown-email and wrong-password so the
// response never reveals whether an account exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	storage    storage.Storage
	tokens     *TokenService
	passwords  *PasswordService
	sessionTTL time.Duration
	log        *zap.SugaredLogger
}

func NewAuthService(
	s storage.Storage,
	tokens *TokenService,
	passwords *PasswordService,
	cfg *util.TokenConfig,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		storage:    s,
		tokens:     tokens,
		passwords:  passwords,
		sessionTTL: cfg.SessionTTL,
		log:        log,
	}
}

func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if ok, reason := ValidateStrength(password); !ok {
		return nil, util.NewResponseError(http.StatusBadRequest, "%s", reason)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Role:         models.RoleCustomer,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("user registered", "userID", user.ID)
	return &user, nil
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	CSRFToken    string
	ExpiresAt    time.Time
}

func (s *AuthService) Login(ctx context.Context, email, password string, client models.ClientInfo) (*LoginResult, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		s.log.Infow("failed login attempt", "userID", user.ID, "ip", client.IPAddress)
		return nil, ErrInvalidCredentials
	}

	refreshToken, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("new refresh token: %w", err)
	}
	csrfToken, err := csrf.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	now := time.Now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: storage.HashToken(refreshToken),
		CSRFToken: csrfToken,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		IsValid:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user, now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Infow("user logged in", "userID", user.ID, "sessionID", session.ID)

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CSRFToken:    csrfToken,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Refresh mints a fresh access token against a live session. The refresh
// token itself is not rotated; the session stays addressable by it until
// logout or expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.storage.FindValidSession(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}

	user, err := s.storage.GetUserByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("get user by id: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates the session and blacklists the surrendered access
// token so it dies now instead of at its exp claim.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	changed, err := s.storage.InvalidateSession(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	if !changed {
		s.log.Debugw("logout on already-invalid session")
	}

	if accessToken != "" {
		if err := s.tokens.RevokeAccessToken(ctx, accessToken); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	return nil
}

// LogoutAll invalidates every session of the caller's user except the one
// that initiated the request, so the caller is not locked out.
func (s *AuthService) LogoutAll(ctx context.Context, refreshToken string) (int64, error) {
	session, err := s.storage.FindValidSession(ctx, refreshToken)
	if err != nil {
		return 0, fmt.Errorf("find session: %w", err)
	}

	count, err := s.storage.InvalidateAllForUser(ctx, session.UserID, session.ID)
	if err != nil {
		return 0, fmt.Errorf("invalidate user sessions: %w", err)
	}

	s.log.Infow("bulk logout", "userID", session.UserID, "invalidated", count)
	return count, nil
}

// ChangePassword rehashes and bulk-invalidates other sessions atomically.
// The session behind currentRefreshToken (if any) survives.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentRefreshToken string) error {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user by id: %w", err)
	}

	if !s.passwords.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if ok, reason := ValidateStrength(newPassword); !ok {
		return util.NewResponseError(http.StatusBadRequest, "%s", reason)
	}

	newHash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	exceptSessionID := ""
	if currentRefreshToken != "" {
		if session, err := s.storage.FindValidSession(ctx, currentRefreshToken); err == nil {
			exceptSessionID = session.ID
		}
	}

	count, err := s.storage.ChangePassword(ctx, userID, newHash, exceptSessionID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Infow("password changed", "userID", userID, "invalidatedSessions", count)
	return nil
}

// CSRFToken returns the session's anti-forgery token, generating one if the
// session somehow has none. Idempotent otherwise.
func (s *AuthService) CSRFToken(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.storage.FindValidSession(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}

	if session.CSRFToken != "" {
		return session.CSRFToken, nil
	}

	token, err := csrf.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	if err := s.storage.SetCSRFToken(ctx, session.ID, token); err != nil {
		return "", fmt.Errorf("set csrf token: %w", err)
	}
	return token, nil
}

// StartSessionSweeper runs the storage-hygiene sweep until ctx is done.
// Validity never depends on it; FindValidSession checks expiry itself.
func (s *AuthService) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := s.storage.DeleteExpired(ctx, time.Now().UTC())
				if err != nil {
					s.log.Errorw("session sweep failed", "error", err)
					continue
				}
				if count > 0 {
					s.log.Infow("swept expired sessions", "count", count)
				}
			}
		}
	}()
}
