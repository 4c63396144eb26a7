// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordManager handles password operations
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a password manager hashing at the given bcrypt cost
func NewPasswordManager(cost int) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword validates password length and rejects the most common choices
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	if len(password) > 72 {
		return fmt.Errorf("password must be no more than 72 characters long")
	}

	commonPasswords := []string{"123456", "1234567", "12345678", "password", "qwerty", "111111", "123123"}
	for _, common := range commonPasswords {
		if strings.EqualFold(password, common) {
			return fmt.Errorf("password is too common and easily guessable")
		}
	}

	return nil
}
