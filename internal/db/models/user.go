// Package models - user.go defines the User model for archive accounts, keyed by a
// ULID and linked to the identity provider subject that first registered them.
package models

import "time"

// User represents a user known to the archive
type User struct {
	ULID      string    `json:"ulid"`
	TokenID   string    `json:"tokenId"` // IdP subject identifier
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// DisplayName returns "First Last", falling back to the username
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}
