// Package user models account holders. Passwords are stored only as bcrypt
// hashes; plaintext never leaves the constructor.
package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/utils"
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the repository.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when email/password verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account holder.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string // bcrypt hash
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a User with a hashed password and current timestamps.
func NewUser(name, email, password string) (*User, error) {
	if name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if !utils.IsEmail(email) {
		return nil, errors.New("invalid email address")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewUserFromData hydrates a User from stored fields. Repository use only.
func NewUserFromData(
	id uuid.UUID,
	name, email, password string,
	created, updated time.Time,
) *User {
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		Password:  password,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return utils.CheckPasswordHash(password, u.Password)
}
