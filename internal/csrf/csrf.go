// Package csrf issues and checks the per-session anti-forgery token.
// One token is generated per session and reused for the session's lifetime.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/planmarket/auth-service/internal/util"
)

func GenerateToken() (string, error) {
	raw := make([]byte, util.CSRFTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// ValidateToken requires both values non-empty and equal. The comparison is
// constant-time; a plain equality check would leak match length via timing.
func ValidateToken(submitted, stored string) bool {
	if submitted == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
