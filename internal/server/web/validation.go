package web

import (
	"errors"
	"regexp"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var (
	errBadEmail     = errors.New("email address is not valid")
	errWeakPassword = errors.New("password must be at least 8 characters and contain upper and lower case letters, a digit and a symbol")
)

// validateEmail checks the address has a local part, a host and a dot in the
// host. Full RFC 5322 parsing is deliberately out of scope.
func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return errBadEmail
	}
	return nil
}

// validatePassword enforces minimum length and character-class coverage.
func validatePassword(password string) error {
	if len(password) < 8 {
		return errWeakPassword
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return errWeakPassword
	}
	return nil
}
