package dto

import (
	"time"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank,min=6"`
}

var loginMessages = fieldMessages{
	"username.required": "Username is required",
	"username.notblank": "Username is required",
	"password.required": "Password is required",
	"password.notblank": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

// Validate returns field-level errors, or nil.
func (r LoginRequest) Validate() map[string]string {
	return check(r, loginMessages)
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	Username  string        `json:"username"`
	Roles     []domain.Role `json:"roles"`
	ExpiresAt time.Time     `json:"expiresAt"`
}
