package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	passwordCost      = 10
)

// IsStrong exige al menos 8 caracteres con minuscula, mayuscula, digito y simbolo.
// Los saltos de linea no se admiten.
func IsStrong(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}
	if strings.ContainsAny(password, "\n\r\u2028\u2029") {
		return false
	}
	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	return lower && upper && digit && other
}

// HashPassword genera un hash bcrypt. Las contraseñas que bcrypt no admite
// (mas de 72 bytes) se tratan como debiles.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrWeakPassword
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compara la contraseña con el hash almacenado.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
