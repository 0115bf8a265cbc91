// Package models holds the records shared between repositories, services
// and transports.
package models

import "time"

// User is an identity owned by the user store. The auth layer reads it as
// the request principal and never mutates it.
//
// Fields:
//   - ID: primary key, also the "sub" claim of issued tokens.
//   - Admin: grants access to every user's resources.
//   - Name / Email: unique login identifiers.
//   - Password: encoded argon2id hash; never serialized outward.
//   - FirstName / LastName: optional display data.
type User struct {
	ID        string    `json:"id"`
	Admin     bool      `json:"admin"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName *string   `json:"firstname,omitempty"`
	LastName  *string   `json:"lastname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
