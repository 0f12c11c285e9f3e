package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	users UserRepository
	txs   TransactionRepository
	alice *domain.User
	bob   *domain.User
}

func (s *MemoryStoreTestSuite) SetupTest() {
	store := NewMemoryStore()
	s.ctx = context.Background()
	s.users = store.Users()
	s.txs = store.Transactions()

	s.alice = &domain.User{Username: "alice", PasswordHash: "x", Roles: []domain.Role{domain.RoleUser}}
	s.bob = &domain.User{Username: "bob", PasswordHash: "y", Roles: []domain.Role{domain.RoleUser}}
	s.Require().NoError(s.users.Create(s.ctx, s.alice))
	s.Require().NoError(s.users.Create(s.ctx, s.bob))
}

func (s *MemoryStoreTestSuite) add(owner *domain.User, date string, amount string) *domain.Transaction {
	d, err := time.Parse(domain.DateLayout, date)
	s.Require().NoError(err)
	tx := &domain.Transaction{
		UserID:   owner.ID,
		Type:     domain.TransactionTypeExpense,
		Category: domain.CategoryGroceries,
		Amount:   decimal.RequireFromString(amount),
		Date:     d,
	}
	s.Require().NoError(s.txs.Create(s.ctx, tx))
	return tx
}

func (s *MemoryStoreTestSuite) TestDuplicateUsername() {
	err := s.users.Create(s.ctx, &domain.User{Username: "alice", PasswordHash: "z"})
	s.ErrorIs(err, ErrDuplicate)
}

func (s *MemoryStoreTestSuite) TestResolveOwnerID() {
	id, err := s.users.ResolveOwnerID(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(s.bob.ID, id)

	_, err = s.users.ResolveOwnerID(s.ctx, "ghost")
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreTestSuite) TestListOrdersByDateDescThenID() {
	first := s.add(s.alice, "2024-01-10", "1.00")
	second := s.add(s.alice, "2024-01-10", "2.00")
	latest := s.add(s.alice, "2024-02-01", "3.00")
	s.add(s.bob, "2024-03-01", "4.00")

	list, err := s.txs.ListOwned(s.ctx, s.alice.ID, TransactionFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]int64{latest.ID, first.ID, second.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func (s *MemoryStoreTestSuite) TestListDateRangeIsInclusive() {
	s.add(s.alice, "2024-01-01", "1.00")
	s.add(s.alice, "2024-01-15", "1.00")
	s.add(s.alice, "2024-01-31", "1.00")
	s.add(s.alice, "2024-02-01", "1.00")

	from, _ := time.Parse(domain.DateLayout, "2024-01-01")
	to, _ := time.Parse(domain.DateLayout, "2024-01-31")
	list, err := s.txs.ListOwned(s.ctx, s.alice.ID, TransactionFilter{From: &from, To: &to})
	s.Require().NoError(err)
	s.Len(list, 3)
}

func (s *MemoryStoreTestSuite) TestListEmptyIsNotNil() {
	list, err := s.txs.ListOwned(s.ctx, s.bob.ID, TransactionFilter{})
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

func (s *MemoryStoreTestSuite) TestForeignRecordIsNotFound() {
	tx := s.add(s.alice, "2024-01-10", "5.00")

	_, err := s.txs.GetOwned(s.ctx, s.bob.ID, tx.ID)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.txs.UpdateOwned(s.ctx, s.bob.ID, tx.ID, domain.TransactionFields{Amount: decimal.RequireFromString("9.00")})
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.txs.DeleteOwned(s.ctx, s.bob.ID, tx.ID), ErrNotFound)

	got, err := s.txs.GetOwned(s.ctx, s.alice.ID, tx.ID)
	s.Require().NoError(err)
	s.True(got.Amount.Equal(decimal.RequireFromString("5.00")))
}

func (s *MemoryStoreTestSuite) TestUpdateKeepsIdentityAndCreatedAt() {
	tx := s.add(s.alice, "2024-01-10", "5.00")
	date, _ := time.Parse(domain.DateLayout, "2024-01-11")

	updated, err := s.txs.UpdateOwned(s.ctx, s.alice.ID, tx.ID, domain.TransactionFields{
		Type:     domain.TransactionTypeIncome,
		Category: domain.CategorySalary,
		Amount:   decimal.RequireFromString("100.00"),
		Date:     date,
	})
	s.Require().NoError(err)
	s.Equal(tx.ID, updated.ID)
	s.Equal(s.alice.ID, updated.UserID)
	s.Equal(tx.CreatedAt, updated.CreatedAt)
	s.Equal(domain.CategorySalary, updated.Category)
	s.False(updated.UpdatedAt.Before(tx.UpdatedAt))
}

func (s *MemoryStoreTestSuite) TestDeleteTwice() {
	tx := s.add(s.alice, "2024-01-10", "5.00")
	s.NoError(s.txs.DeleteOwned(s.ctx, s.alice.ID, tx.ID))
	s.ErrorIs(s.txs.DeleteOwned(s.ctx, s.alice.ID, tx.ID), ErrNotFound)
}

func TestMemoryStoreTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	user := &domain.User{Username: "carol", Roles: []domain.Role{domain.RoleUser}}
	require.NoError(t, store.Users().Create(ctx, user))

	got, err := store.Users().GetByUsername(ctx, "carol")
	require.NoError(t, err)
	got.Roles[0] = domain.RoleAdmin

	again, err := store.Users().GetByUsername(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, again.Roles[0])
}
