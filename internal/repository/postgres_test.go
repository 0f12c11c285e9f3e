package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/persistence"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func createTestUser(t *testing.T, users UserRepository) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     "u-" + uuid.NewString()[:8],
		PasswordHash: "hash",
		Roles:        []domain.Role{domain.RoleUser},
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestPostgresUserRepository(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, users)
	assert.NotZero(t, user.ID)

	got, err := users.GetByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser}, got.Roles)

	id, err := users.ResolveOwnerID(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	assert.ErrorIs(t, users.Create(ctx, &domain.User{Username: user.Username, PasswordHash: "x"}), ErrDuplicate)

	_, err = users.GetByUsername(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresTransactionRepository(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	txs := NewTransactionRepository(pool)
	ctx := context.Background()

	owner := createTestUser(t, users)
	other := createTestUser(t, users)

	day := func(s string) time.Time {
		d, err := time.Parse(domain.DateLayout, s)
		require.NoError(t, err)
		return d
	}
	note := "weekly shop"
	older := &domain.Transaction{UserID: owner.ID, Type: domain.TransactionTypeExpense, Category: domain.CategoryGroceries,
		Amount: decimal.RequireFromString("42.10"), Date: day("2024-01-05"), Description: &note}
	newer := &domain.Transaction{UserID: owner.ID, Type: domain.TransactionTypeIncome, Category: domain.CategorySalary,
		Amount: decimal.RequireFromString("1500.00"), Date: day("2024-01-31")}
	require.NoError(t, txs.Create(ctx, older))
	require.NoError(t, txs.Create(ctx, newer))

	list, err := txs.ListOwned(ctx, owner.ID, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.True(t, list[1].Amount.Equal(decimal.RequireFromString("42.10")))
	require.NotNil(t, list[1].Description)
	assert.Equal(t, note, *list[1].Description)

	expense := domain.TransactionTypeExpense
	list, err = txs.ListOwned(ctx, owner.ID, TransactionFilter{Type: &expense})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)

	_, err = txs.GetOwned(ctx, other.ID, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := txs.UpdateOwned(ctx, owner.ID, older.ID, domain.TransactionFields{
		Type: domain.TransactionTypeExpense, Category: domain.CategoryRent,
		Amount: decimal.RequireFromString("900.00"), Date: day("2024-01-06"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryRent, updated.Category)
	assert.Nil(t, updated.Description)

	_, err = txs.UpdateOwned(ctx, other.ID, older.ID, domain.TransactionFields{Amount: decimal.RequireFromString("1.00")})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, txs.DeleteOwned(ctx, other.ID, older.ID), ErrNotFound)
	assert.NoError(t, txs.DeleteOwned(ctx, owner.ID, older.ID))
	assert.ErrorIs(t, txs.DeleteOwned(ctx, owner.ID, older.ID), ErrNotFound)
}
