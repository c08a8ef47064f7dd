// Package domain contains the core business entities for the City Guide directory.
// These are plain Go structs with no storage or transport concerns.
package domain

import (
	"time"
)

// User represents a registered user in the system.
// Users add listings and comments; the reserved admin username may
// additionally delete listings and moderate comments.
type User struct {
	// ID is the unique identifier for the user (assigned by the store).
	ID string `json:"id"`

	// Username is the unique username for login and display.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses or templates.
	PasswordHash string `json:"-"`

	// FirstName, LastName and Hometown are optional profile fields.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Hometown  string `json:"hometown"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a new User with default values.
func NewUser(username, passwordHash, firstName, lastName, hometown string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Hometown:     hometown,
		CreatedAt:    time.Now().UTC(),
	}
}

// DisplayName returns the first name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
