package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns containers and collection entries.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a user with a generated ID. The password hash is set by the
// auth service.
func NewUser(username string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrUsernameRequired
	}

	return &User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UserError is a typed error for account operations
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

var (
	ErrUserNotFound       = UserError{"user not found"}
	ErrUsernameRequired   = UserError{"username is required"}
	ErrUsernameTaken      = UserError{"username already taken"}
	ErrInvalidCredentials = UserError{"incorrect username or password"}
	ErrRegistrationOff    = UserError{"registration disabled when auth is disabled"}
)
