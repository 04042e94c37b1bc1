package utils

import "regexp"

// MinPasswordLength is the shortest password accepted at setup.
const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword reports whether password is long enough
func ValidatePassword(password string) bool {
	return len([]rune(password)) >= MinPasswordLength
}
