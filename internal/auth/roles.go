package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// RequireAnyRole ensures the caller is authenticated and carries at least one of
// the allowed roles. With no roles it only requires authentication.
func RequireAnyRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, role := range allowed {
			if identity.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
