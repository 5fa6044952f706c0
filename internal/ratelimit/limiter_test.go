package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets the tests move the window without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	l := New()
	l.now = clock.Now
	return l, clock
}

func TestIsLimited_AdmitsExactlyLimit(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter()

	for i := 0; i < 3; i++ {
		assert.False(t, l.IsLimited("client", 3, time.Second), "call %d should be admitted", i+1)
	}
	assert.True(t, l.IsLimited("client", 3, time.Second), "4th call within the window must be rejected")
}

func TestIsLimited_WindowSlides(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter()

	for i := 0; i < 3; i++ {
		assert.False(t, l.IsLimited("client", 3, time.Second))
	}
	assert.True(t, l.IsLimited("client", 3, time.Second))

	clock.Advance(1100 * time.Millisecond)
	assert.False(t, l.IsLimited("client", 3, time.Second), "a new call past the window must be admitted")
}

// The window trails continuously: admitting calls at t=0 and t=700ms, then
// advancing to t=1.2s must free only the t=0 slot.
func TestIsLimited_PartialExpiry(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter()

	assert.False(t, l.IsLimited("client", 2, time.Second))
	clock.Advance(700 * time.Millisecond)
	assert.False(t, l.IsLimited("client", 2, time.Second))
	assert.True(t, l.IsLimited("client", 2, time.Second))

	clock.Advance(500 * time.Millisecond)
	assert.False(t, l.IsLimited("client", 2, time.Second))
	assert.True(t, l.IsLimited("client", 2, time.Second), "only one slot freed")
}

func TestIsLimited_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter()

	assert.False(t, l.IsLimited("a", 1, time.Second))
	assert.True(t, l.IsLimited("a", 1, time.Second))
	assert.False(t, l.IsLimited("b", 1, time.Second))
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter()

	assert.Equal(t, 5, l.Remaining("client", 5, time.Second))

	l.IsLimited("client", 5, time.Second)
	l.IsLimited("client", 5, time.Second)
	assert.Equal(t, 3, l.Remaining("client", 5, time.Second))

	// Remaining is read-only: asking twice must not consume budget.
	assert.Equal(t, 3, l.Remaining("client", 5, time.Second))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 5, l.Remaining("client", 5, time.Second))
}

func TestRemaining_NeverNegative(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter()

	for i := 0; i < 4; i++ {
		l.IsLimited("client", 2, time.Minute)
	}
	assert.Equal(t, 0, l.Remaining("client", 2, time.Minute))
}

// Two concurrent requests must never both be admitted into the last slot.
func TestIsLimited_Concurrent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter()

	const (
		limit   = 100
		callers = 50
		calls   = 10
	)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				if !l.IsLimited("shared", limit, time.Minute) {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted)
}

func TestIsLimited_ManyKeysAcrossShards(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter()

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("client-%d", i)
		assert.False(t, l.IsLimited(key, 1, time.Minute))
		assert.True(t, l.IsLimited(key, 1, time.Minute))
	}
}
