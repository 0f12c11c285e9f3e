package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// Store-level errors shared by every implementation.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	OwnerResolver
}

// OwnerResolver maps a token subject to the owning user id.
type OwnerResolver interface {
	ResolveOwnerID(ctx context.Context, username string) (int64, error)
}

// OwnerCache is implemented by resolvers that memoize ids.
type OwnerCache interface {
	Forget(ctx context.Context, username string)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, roles)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		rolesToStrings(user.Roles),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, roles, created_at, updated_at
        FROM users WHERE username=$1`

	var (
		user  domain.User
		roles []string
	)
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	user.Roles = stringsToRoles(roles)
	return &user, nil
}

func (r *userRepository) ResolveOwnerID(ctx context.Context, username string) (int64, error) {
	const query = `SELECT id FROM users WHERE username=$1`

	var id int64
	if err := r.pool.QueryRow(ctx, query, username).Scan(&id); err != nil {
		return 0, mapNoRows(err)
	}
	return id, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func stringsToRoles(raw []string) []domain.Role {
	out := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.Role(r))
	}
	return out
}
