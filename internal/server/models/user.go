// Package models defines the records persisted by the server.
package models

import "time"

// User is keyed by Email. PasswordHash is an encoded argon2id digest and
// never leaves the server.
type User struct {
	Email        string
	Name         string
	LastName     string
	PasswordHash string
	Validated    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
