package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newManagerAt(t0 time.Time) (*TokenManager, *fakeClock) {
	clock := &fakeClock{t: t0}
	return NewTokenManager(testSecret, DefaultTokenTTL, WithClock(clock.Now)), clock
}

func TestIssueValidateRoundTrip(t *testing.T) {
	t0 := time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)
	tm, clock := newManagerAt(t0)

	identities := []domain.Identity{
		{Username: "admin", Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser}},
		{Username: "bob", Roles: []domain.Role{domain.RoleUser}},
		{Username: "Bob", Roles: []domain.Role{}},
	}
	for _, id := range identities {
		token, exp, err := tm.Issue(id)
		require.NoError(t, err)
		assert.Equal(t, t0.Add(24*time.Hour), exp)
		assert.Len(t, strings.Split(token, "."), 3)
		assert.True(t, strings.HasPrefix(token, "eyJ"))

		for _, offset := range []time.Duration{0, time.Hour, 24*time.Hour - time.Second} {
			clock.t = t0.Add(offset)
			got, err := tm.Validate(token)
			require.NoError(t, err, "offset %s", offset)
			assert.Equal(t, id.Username, got.Username)
			assert.ElementsMatch(t, id.Roles, got.Roles)
		}
		clock.t = t0
	}
}

func TestValidateExpired(t *testing.T) {
	t0 := time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)
	tm, clock := newManagerAt(t0)

	token, _, err := tm.Issue(domain.Identity{Username: "admin"})
	require.NoError(t, err)

	for _, offset := range []time.Duration{24 * time.Hour, 24*time.Hour + time.Second, 30 * 24 * time.Hour} {
		clock.t = t0.Add(offset)
		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, ErrTokenExpired, "offset %s", offset)
	}
}

func TestValidateInvalidSignature(t *testing.T) {
	tm, _ := newManagerAt(time.Now())
	token, _, err := tm.Issue(domain.Identity{Username: "admin", Roles: []domain.Role{domain.RoleUser}})
	require.NoError(t, err)

	t.Run("foreign secret", func(t *testing.T) {
		other := NewTokenManager([]byte("another-secret-another-secret-xx"), time.Hour)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrTokenInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"mallory","roles":["ADMIN"],"exp":4102444800}`))
		forged := parts[0] + "." + payload + "." + parts[2]
		_, err := tm.Validate(forged)
		assert.ErrorIs(t, err, ErrTokenInvalidSignature)
	})

	t.Run("unsigned token", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(time.Hour).Unix()}
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.Validate(none)
		assert.ErrorIs(t, err, ErrTokenInvalidSignature)
	})
}

func TestValidateMalformed(t *testing.T) {
	tm, _ := newManagerAt(time.Now())

	for _, raw := range []string{"", "abc", "a.b", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		_, err := tm.Validate(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", raw)
	}

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = tm.Validate(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "admin"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = tm.Validate(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}

func TestIssueRequiresSubject(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)
	assert.Equal(t, DefaultTokenTTL, tm.TTL())

	_, _, err := tm.Issue(domain.Identity{})
	assert.Error(t, err)
}
