// Package validation holds input format checks shared by the auth and
// profile handlers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// phoneRegex accepts an optional leading + and 7 to 15 digits, which covers
// E.164 plus the bare national numbers the intake forms collect.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidateEmail validates email address format.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email too long")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName validates a display name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}
	return nil
}

// ValidatePhone validates a contact phone number. Empty is allowed, phone is
// an optional field.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if !phoneRegex.MatchString(cleaned) {
		return fmt.Errorf("invalid phone number format")
	}
	return nil
}

// ValidatePassword enforces password strength requirements.
func ValidatePassword(password string) error {
	const minLen = 12
	const maxLen = 128

	if len(password) < minLen {
		return fmt.Errorf("password must be at least %d characters", minLen)
	}
	if len(password) > maxLen {
		return fmt.Errorf("password must be at most %d characters", maxLen)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("password must contain upper and lower case letters, a digit, and a special character")
	}
	return nil
}
