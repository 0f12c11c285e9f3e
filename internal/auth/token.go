package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// DefaultTokenTTL is the fixed validity window of an access token.
const DefaultTokenTTL = 24 * time.Hour

// Validation failures. All of them mean "unauthenticated" at the HTTP boundary.
var (
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
)

// TokenManager issues and validates HS256 bearer tokens. It is immutable after
// construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) { tm.now = now }
}

// NewTokenManager builds a new manager. A non-positive ttl selects DefaultTokenTTL.
func NewTokenManager(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tm := &TokenManager{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	tm.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	return tm
}

// Claims describes the JWT payload. The subject is the username.
type Claims struct {
	Roles []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Issue signs a token for identity, valid from now until now+ttl.
func (tm *TokenManager) Issue(identity domain.Identity) (string, time.Time, error) {
	if identity.Username == "" {
		return "", time.Time{}, errors.New("cannot issue token without subject")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Roles: identity.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Validate checks signature and expiry and returns the embedded identity.
func (tm *TokenManager) Validate(tokenStr string) (*domain.Identity, error) {
	claims := &Claims{}
	_, err := tm.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	roles := make([]domain.Role, len(claims.Roles))
	copy(roles, claims.Roles)
	return &domain.Identity{Username: claims.Subject, Roles: roles}, nil
}

// TTL returns the validity window of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Signature is checked before claims, so a tampered token never reports Expired.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
