package domain

import (
	"fmt"
	"strings"
)

// Role is an authorization role carried in tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRoles parses a comma separated role list such as "USER,ADMIN".
func ParseRoles(raw string) ([]Role, error) {
	var roles []Role
	seen := make(map[Role]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		role := Role(part)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q", part)
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	Username string
	Roles    []Role
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
