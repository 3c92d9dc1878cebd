package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const specialChars = ` !"#$%&'()*+,-./[\]^_` + "`" + `{|}~`

func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(plain, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// ValidatePassword enforces the registration policy: at least 8 characters
// with an uppercase letter, a lowercase letter, a digit and a special
// character.
func ValidatePassword(p string) error {
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	if len(p) < 8 || !upper || !lower || !digit || !special {
		return errors.New("password must be at least 8 characters and contain uppercase, lowercase, number and special character")
	}
	return nil
}
