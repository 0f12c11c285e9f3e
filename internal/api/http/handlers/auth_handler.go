package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ValerioMC/smart-ledger-be/internal/api/dto"
	"github.com/ValerioMC/smart-ledger-be/internal/service"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := req.Validate(); errs != nil {
		return apperrors.NewValidationError("Validation failed", errs)
	}

	res, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     res.Token,
		Username:  res.Username,
		Roles:     res.Roles,
		ExpiresAt: res.ExpiresAt,
	})
}
