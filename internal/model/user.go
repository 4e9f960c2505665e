// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// Username is unique across the store (enforced by a UNIQUE constraint in
// every repository implementation). PasswordHash holds a bcrypt hash and is
// never serialised.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
