package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

const identityKey = "auth_identity"

// TokenValidator turns a raw bearer token into an identity.
type TokenValidator interface {
	Validate(token string) (*domain.Identity, error)
}

// AuthMiddleware validates bearer tokens and stores the resolved identity.
// No store lookup happens here; the token is self-contained.
type AuthMiddleware struct {
	tokens TokenValidator
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// Handle enforces authentication for protected routes. On failure the request
// never reaches the next handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	identity, err := m.tokens.Validate(strings.TrimSpace(parts[1]))
	if err != nil {
		m.logger.Debug("bearer token rejected",
			zap.String("reason", failureReason(err)),
			zap.String("path", c.Path()))
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	c.Locals(identityKey, *identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
