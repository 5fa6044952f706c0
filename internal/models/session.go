package models

import "time"

// Session is one active login. It is addressable by the sha256 of its refresh
// token, never by the raw value. Once IsValid flips to false the record is
// terminal: there is no transition back to active.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	CSRFToken string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	IsValid   bool      `json:"is_valid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type ClientInfo struct {
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}
