package util

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades hashing time against login latency; 12 keeps a
// hash under ~300ms on current hardware.
const bcryptCost = 12

// HashPassword returns the bcrypt hash of a plain-text password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword reports whether the plain-text password matches the
// stored bcrypt hash.
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
