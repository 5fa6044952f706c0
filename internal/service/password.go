package service

import (
	"fmt"
	"runtime"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// PasswordService hashes and verifies credentials. bcrypt at cost 12 is
// deliberately expensive; the semaphore caps concurrent hashes so a login
// burst cannot pin every CPU.
type PasswordService struct {
	sem chan struct{}
}

func NewPasswordService() *PasswordService {
	return &PasswordService{
		sem: make(chan struct{}, runtime.GOMAXPROCS(0)),
	}
}

func (s *PasswordService) Hash(password string) (string, error) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *PasswordService) Verify(password, hash string) bool {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const minPasswordLength = 8

// ValidateStrength checks the rules in a fixed order and reports the first
// violation only: length, uppercase, lowercase, digit, symbol.
func ValidateStrength(password string) (bool, string) {
	if len(password) < minPasswordLength {
		return false, "password must be at least 8 characters long"
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return false, "password must contain an uppercase letter"
	case !hasLower:
		return false, "password must contain a lowercase letter"
	case !hasDigit:
		return false, "password must contain a digit"
	case !hasSymbol:
		return false, "password must contain a symbol"
	}

	return true, ""
}
