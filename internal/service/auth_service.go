package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/auth"
	"github.com/ValerioMC/smart-ledger-be/internal/config"
	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/repository"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// InvalidCredentialsMessage is the single message for every login failure.
const InvalidCredentialsMessage = "Invalid username or password"

// MinPasswordLength applies to logins and provisioning alike.
const MinPasswordLength = 6

// MaxUsernameLength matches the users.username column.
const MaxUsernameLength = 50

// AuthService coordinates login and user provisioning.
type AuthService struct {
	users      repository.UserRepository
	ownerCache repository.OwnerCache
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dummyHash  string
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	// OwnerCache, when set, is cleared for every newly provisioned username.
	OwnerCache repository.OwnerCache
	Tokens     *auth.TokenManager
	Logger     *zap.Logger
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	Username  string
	Roles     []domain.Role
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// Compared against when the username is unknown so both failure paths cost one bcrypt check.
	dummy, err := auth.HashPassword("smart-ledger-unknown-user", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:      deps.UserRepo,
		ownerCache: deps.OwnerCache,
		tokenMgr:   deps.Tokens,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummy,
		logger:     logger,
	}, nil
}

// Login verifies credentials and issues an access token. Unknown users and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		auth.VerifyPassword(s.dummyHash, password)
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, invalidCredentials()
	case err != nil:
		return nil, apperrors.NewInternalError(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, invalidCredentials()
	}

	identity := user.Identity()
	token, exp, err := s.tokenMgr.Issue(identity)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("login succeeded", zap.String("username", username))
	return &LoginResult{Token: token, Username: identity.Username, Roles: identity.Roles, ExpiresAt: exp}, nil
}

// Register creates a new user. An existing username yields a conflict error.
func (s *AuthService) Register(ctx context.Context, username, password string, roles []domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if fields := validateCredentials(username, password); fields != nil {
		return nil, apperrors.NewValidationError("Validation failed", fields)
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("Validation failed", map[string]string{"password": "Password is too long"})
		}
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Username: username, PasswordHash: hash, Roles: roles}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if s.ownerCache != nil {
		s.ownerCache.Forget(ctx, username)
	}
	s.logger.Info("user provisioned", zap.String("username", username), zap.Any("roles", roles))
	return user, nil
}

// EnsureUser provisions username unless it already exists. The boolean reports
// whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string, roles []domain.Role) (*domain.User, bool, error) {
	existing, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user, err := s.Register(ctx, username, password, roles)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized(InvalidCredentialsMessage)
}

func validateCredentials(username, password string) map[string]string {
	fields := map[string]string{}
	switch {
	case username == "":
		fields["username"] = "Username is required"
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		fields["username"] = fmt.Sprintf("Username must be at most %d characters", MaxUsernameLength)
	}
	switch {
	case strings.TrimSpace(password) == "":
		fields["password"] = "Password is required"
	case len(password) < MinPasswordLength:
		fields["password"] = "Password must be at least 6 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
