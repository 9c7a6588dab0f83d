package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// adminHashCost is the bcrypt work factor for admin account passwords.
const adminHashCost = 12

var errEmptyPassword = errors.New("security: empty password")

// HashPassword derives the stored bcrypt hash for an admin password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	hash, errHash := bcrypt.GenerateFromPassword([]byte(password), adminHashCost)
	if errHash != nil {
		return "", errHash
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
