package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// MemoryStore is an in-process user and transaction store used when no Postgres
// DSN is configured, and by tests. It follows the same ownership contract as the
// Postgres repositories.
type MemoryStore struct {
	mu           sync.Mutex
	now          func() time.Time
	nextUserID   int64
	nextTxID     int64
	users        map[string]*domain.User
	transactions map[int64]*domain.Transaction
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		users:        make(map[string]*domain.User),
		transactions: make(map[int64]*domain.Transaction),
	}
}

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Transactions exposes the store as a TransactionRepository.
func (s *MemoryStore) Transactions() TransactionRepository { return memoryTransactions{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return ErrDuplicate
	}
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	stored.Roles = append([]domain.Role(nil), user.Roles...)
	s.users[user.Username] = &stored
	return nil
}

func (m memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	cp.Roles = append([]domain.Role(nil), user.Roles...)
	return &cp, nil
}

func (m memoryUsers) ResolveOwnerID(_ context.Context, username string) (int64, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return 0, ErrNotFound
	}
	return user.ID, nil
}

type memoryTransactions struct{ s *MemoryStore }

func (m memoryTransactions) Create(_ context.Context, tx *domain.Transaction) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTxID++
	now := s.now()
	tx.ID = s.nextTxID
	tx.CreatedAt = now
	tx.UpdatedAt = now

	stored := *tx
	s.transactions[tx.ID] = &stored
	return nil
}

func (m memoryTransactions) ListOwned(_ context.Context, ownerID int64, filter TransactionFilter) ([]domain.Transaction, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID != ownerID {
			continue
		}
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		result = append(result, *tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m memoryTransactions) GetOwned(_ context.Context, ownerID, id int64) (*domain.Transaction, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.owned(ownerID, id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m memoryTransactions) UpdateOwned(_ context.Context, ownerID, id int64, fields domain.TransactionFields) (*domain.Transaction, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.owned(ownerID, id)
	if !ok {
		return nil, ErrNotFound
	}
	tx.Apply(fields)
	tx.UpdatedAt = s.now()
	cp := *tx
	return &cp, nil
}

func (m memoryTransactions) DeleteOwned(_ context.Context, ownerID, id int64) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(ownerID, id); !ok {
		return ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// owned must be called with mu held.
func (s *MemoryStore) owned(ownerID, id int64) (*domain.Transaction, bool) {
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != ownerID {
		return nil, false
	}
	return tx, true
}
