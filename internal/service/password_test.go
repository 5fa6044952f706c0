package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewPasswordService()

	hash, err := svc.Hash("Correct horse battery staple 1!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "Correct horse")

	assert.True(t, svc.Verify("Correct horse battery staple 1!", hash))
	assert.False(t, svc.Verify("wrong password", hash))
	assert.False(t, svc.Verify("", hash))
}

func TestPasswordHashIsSalted(t *testing.T) {
	t.Parallel()

	svc := NewPasswordService()

	h1, err := svc.Hash("SamePassword1!")
	require.NoError(t, err)
	h2, err := svc.Hash("SamePassword1!")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, svc.Verify("SamePassword1!", h1))
	assert.True(t, svc.Verify("SamePassword1!", h2))
}

func TestPasswordHashConcurrent(t *testing.T) {
	t.Parallel()

	svc := NewPasswordService()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := svc.Hash("Concurrent1!")
			assert.NoError(t, err)
			assert.True(t, svc.Verify("Concurrent1!", hash))
		}()
	}
	wg.Wait()
}

// The rule order is an observable contract: an input violating several rules
// must report the first violated rule only.
func TestValidateStrengthOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantOK   bool
		reason   string
	}{
		{
			name:     "valid",
			password: "Sturdy#Pass1",
			wantOK:   true,
		},
		{
			name:     "too short wins over everything",
			password: "ab1",
			reason:   "password must be at least 8 characters long",
		},
		{
			name:     "missing uppercase reported first",
			password: "abcdefgh",
			reason:   "password must contain an uppercase letter",
		},
		{
			name:     "missing lowercase",
			password: "ABCDEFGH",
			reason:   "password must contain a lowercase letter",
		},
		{
			name:     "missing digit",
			password: "Abcdefgh",
			reason:   "password must contain a digit",
		},
		{
			name:     "missing symbol",
			password: "Abcdefg1",
			reason:   "password must contain a symbol",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, reason := ValidateStrength(tt.password)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
