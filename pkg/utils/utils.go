// Package utils holds small helpers shared across services.
package utils

import (
	"net/mail"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain password using bcrypt with cost 12.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsEmail reports whether the string parses as an email address.
func IsEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
