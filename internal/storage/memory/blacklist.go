package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist mirrors the Redis blacklist for tests: a token is
// invalidated until its recorded expiry passes.
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time)}
}

func (b *TokenBlacklist) InvalidateToken(_ context.Context, token string, expiration time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens[token] = time.Now().Add(expiration)
	return nil
}

func (b *TokenBlacklist) IsTokenInvalidated(_ context.Context, token string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	until, ok := b.tokens[token]
	return ok && time.Now().Before(until), nil
}
