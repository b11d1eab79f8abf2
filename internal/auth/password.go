package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// SpecialCharacters is the punctuation set accepted by the password policies.
const SpecialCharacters = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ErrWeakPassword is returned when a password does not satisfy a policy.
var ErrWeakPassword = errors.New("password does not satisfy policy")

// PasswordPolicy describes the composition rules for a password.
type PasswordPolicy struct {
	MinLength      int
	MaxBytes       int
	RequireLetter  bool
	RequireDigit   bool
	RequireSpecial bool
	Message        string
}

// RegistrationPolicy applies to passwords chosen at sign-up.
var RegistrationPolicy = PasswordPolicy{
	MinLength:      8,
	MaxBytes:       MaxPasswordBytes,
	RequireLetter:  true,
	RequireDigit:   true,
	RequireSpecial: true,
	Message:        "password must be 8 characters to 72 bytes long and include a letter, a digit and a special character",
}

// ChangePasswordPolicy applies when an existing member rotates their password.
var ChangePasswordPolicy = PasswordPolicy{
	MinLength:      5,
	MaxBytes:       MaxPasswordBytes,
	RequireSpecial: true,
	Message:        "password must be 5 characters to 72 bytes long and include a special character",
}

// Check returns an error wrapping ErrWeakPassword when password violates p.
func (p PasswordPolicy) Check(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return p.violation()
	}
	if p.MaxBytes > 0 && len(password) > p.MaxBytes {
		return p.violation()
	}

	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(SpecialCharacters, r):
			hasSpecial = true
		}
	}

	if (p.RequireLetter && !hasLetter) || (p.RequireDigit && !hasDigit) || (p.RequireSpecial && !hasSpecial) {
		return p.violation()
	}
	return nil
}

func (p PasswordPolicy) violation() error {
	return fmt.Errorf("%w: %s", ErrWeakPassword, p.Message)
}

// HashPassword hashes password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword reports whether password matches hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
