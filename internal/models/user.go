package models

import (
	"time"
)

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User roles
const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string // "reader", "author", "admin"
	Status       string // "active", "disabled"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDisabled reports whether the account has been administratively disabled.
func (u *User) IsDisabled() bool {
	return u.Status == UserStatusDisabled
}
