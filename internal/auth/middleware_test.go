package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

func newTestApp(tm *TokenManager, reached *bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var de *apperrors.DomainError
			if errors.As(err, &de) {
				return c.Status(de.HTTPStatus).SendString(de.Message)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	mw := NewAuthMiddleware(tm, zap.NewNop())
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		*reached = true
		identity, ok := IdentityFromContext(c)
		if !ok {
			return errors.New("identity missing")
		}
		return c.SendString(identity.Username)
	})
	app.Get("/admin", mw.Handle, RequireAnyRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	userToken, _, err := tm.Issue(domain.Identity{Username: "bob", Roles: []domain.Role{domain.RoleUser}})
	require.NoError(t, err)
	adminToken, _, err := tm.Issue(domain.Identity{Username: "admin", Roles: []domain.Role{domain.RoleAdmin}})
	require.NoError(t, err)

	expired := NewTokenManager(testSecret, time.Hour, WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	expiredToken, _, err := expired.Issue(domain.Identity{Username: "bob"})
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		header      string
		wantStatus  int
		wantReached bool
	}{
		{"valid token", "/me", "Bearer " + userToken, http.StatusOK, true},
		{"lowercase scheme", "/me", "bearer " + userToken, http.StatusOK, true},
		{"no header", "/me", "", http.StatusUnauthorized, false},
		{"wrong scheme", "/me", "Basic " + userToken, http.StatusUnauthorized, false},
		{"empty token", "/me", "Bearer ", http.StatusUnauthorized, false},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized, false},
		{"expired token", "/me", "Bearer " + expiredToken, http.StatusUnauthorized, false},
		{"role allowed", "/admin", "Bearer " + adminToken, http.StatusNoContent, false},
		{"role missing", "/admin", "Bearer " + userToken, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			app := newTestApp(tm, &reached)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "expired", failureReason(ErrTokenExpired))
	assert.Equal(t, "invalid_signature", failureReason(ErrTokenInvalidSignature))
	assert.Equal(t, "malformed", failureReason(ErrTokenMalformed))
}
