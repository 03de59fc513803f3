package validator

import (
	"errors"
	"regexp"
	"unicode"
)

// Registration checks for the signup form. The server is the authority;
// the mobile client only mirrors these rules for inline hints.
var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUsername = errors.New("username must be 3-30 letters, digits or underscores")
	ErrInvalidPassword = errors.New("password must be at least 8 characters with a letter and a digit")
)

const (
	minPasswordLength = 8
	maxEmailLength    = 254
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func ValidateEmail(email string) error {
	if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrInvalidPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrInvalidPassword
	}
	return nil
}
