package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRegistrationPolicy(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"abcd123!", true},
		{"Hotube2024?", true},
		{"abc12!", false},
		{"abcdefgh!", false},
		{"12345678!", false},
		{"abcd1234", false},
		{"가나다라마바1!", false},
		{"Abcdef1!" + strings.Repeat("x", 64), true},
		{"Abcdef1!" + strings.Repeat("x", 65), false},
		{"Abcdef1!" + strings.Repeat("x", 80), false},
	}
	for _, tc := range cases {
		err := RegistrationPolicy.Check(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("expected %q to pass, got %v", tc.password, err)
		}
		if !tc.ok && !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected %q to fail with ErrWeakPassword, got %v", tc.password, err)
		}
	}
}

func TestChangePasswordPolicy(t *testing.T) {
	if err := ChangePasswordPolicy.Check("123!5"); err != nil {
		t.Fatalf("expected short password with punctuation to pass: %v", err)
	}
	if err := ChangePasswordPolicy.Check("12!4"); err == nil {
		t.Fatal("expected 4 character password to fail")
	}
	if err := ChangePasswordPolicy.Check("abcdef"); err == nil {
		t.Fatal("expected password without punctuation to fail")
	}
	if err := ChangePasswordPolicy.Check("1234!" + strings.Repeat("x", 68)); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected password over %d bytes to fail, got %v", MaxPasswordBytes, err)
	}
}

func TestPoliciesAcceptEveryPasswordBcryptCanHash(t *testing.T) {
	password := "Abcdef1!" + strings.Repeat("x", MaxPasswordBytes-8)
	if err := RegistrationPolicy.Check(password); err != nil {
		t.Fatalf("expected %d byte password to pass: %v", len(password), err)
	}
	if _, err := HashPassword(password, bcrypt.MinCost); err != nil {
		t.Fatalf("hash %d byte password: %v", len(password), err)
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("12345!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "12345!" {
		t.Fatal("expected password to be hashed")
	}
	if !ComparePassword(hash, "12345!") {
		t.Fatal("expected password to match hash")
	}
	if ComparePassword(hash, "12345?") {
		t.Fatal("expected different password to be rejected")
	}
}
