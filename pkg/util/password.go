package util

import (
	"golang.org/x/crypto/bcrypt"
)

// Cost 12 keeps login under ~300ms on current hardware while staying
// expensive enough for offline cracking.
const bcryptCost = 12

// HashPassword derives a bcrypt hash for storage on the user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plain password matches the stored hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
