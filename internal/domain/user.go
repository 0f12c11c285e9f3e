package domain

import "time"

// User is a provisioned ledger owner. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the token-facing view of the user.
func (u *User) Identity() Identity {
	roles := make([]Role, len(u.Roles))
	copy(roles, u.Roles)
	return Identity{Username: u.Username, Roles: roles}
}
