package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]{1,148})[A-Za-z0-9]$`)

const (
	minPasswordLen = 12
	maxPasswordLen = 128
	maxEmailLen    = 254
)

// ValidateUsername allows 3-150 letters, digits, '_' and '-', starting and
// ending with a letter or digit.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-150 characters of letters, numbers, '_' or '-', and start and end with a letter or number")
	}
	return nil
}

// ValidateEmail checks address syntax and length.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLen {
		return fmt.Errorf("email must be at most %d characters", maxEmailLen)
	}
	if strings.ContainsAny(email, " \t\r\n") || strings.HasSuffix(email, ".") {
		return fmt.Errorf("invalid email format")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword requires 12-128 characters with upper and lower case
// letters, a digit and a special character.
func ValidatePassword(password string) error {
	n := len([]rune(password))
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("password must include upper and lower case letters, a number and a special character")
	}
	return nil
}
