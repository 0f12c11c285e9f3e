package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/events"
	"github.com/ValerioMC/smart-ledger-be/internal/repository"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// LedgerService is the only entry point to transaction records. Every operation
// resolves the caller's owner id and passes it to the store as part of the
// lookup predicate.
type LedgerService struct {
	transactions repository.TransactionRepository
	owners       repository.OwnerResolver
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// LedgerDependencies bundles collaborators for the ledger service.
type LedgerDependencies struct {
	TransactionRepo repository.TransactionRepository
	OwnerResolver   repository.OwnerResolver
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		transactions: deps.TransactionRepo,
		owners:       deps.OwnerResolver,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// Create stores a new record owned by identity.
func (s *LedgerService) Create(ctx context.Context, identity domain.Identity, fields domain.TransactionFields) (*domain.Transaction, error) {
	fields = normalizeFields(fields)
	if errs := fields.Validate(); errs != nil {
		return nil, apperrors.NewValidationError("Validation failed", errs)
	}
	ownerID, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{UserID: ownerID}
	tx.Apply(fields)
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTransactionCreated, tx.ID, identity.Username, payloadOf(tx)))
	return tx, nil
}

// List returns every record owned by identity, most recent first.
func (s *LedgerService) List(ctx context.Context, identity domain.Identity) ([]domain.Transaction, error) {
	return s.list(ctx, identity, repository.TransactionFilter{})
}

// ListByType returns owned records of one type.
func (s *LedgerService) ListByType(ctx context.Context, identity domain.Identity, txType domain.TransactionType) ([]domain.Transaction, error) {
	txType = domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(txType))))
	if !txType.Valid() {
		return nil, apperrors.NewValidationError("Validation failed", map[string]string{
			"type": "Type must be one of INCOME, EXPENSE",
		})
	}
	return s.list(ctx, identity, repository.TransactionFilter{Type: &txType})
}

// ListByDateRange returns owned records dated within [start, end]. A start after
// end yields an empty list.
func (s *LedgerService) ListByDateRange(ctx context.Context, identity domain.Identity, start, end time.Time) ([]domain.Transaction, error) {
	start, end = domain.TruncateDate(start), domain.TruncateDate(end)
	if start.After(end) {
		if _, err := s.resolveOwner(ctx, identity); err != nil {
			return nil, err
		}
		return []domain.Transaction{}, nil
	}
	return s.list(ctx, identity, repository.TransactionFilter{From: &start, To: &end})
}

// Get returns one owned record. Foreign and missing ids are both NotFound.
func (s *LedgerService) Get(ctx context.Context, identity domain.Identity, id int64) (*domain.Transaction, error) {
	ownerID, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}
	tx, err := s.transactions.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, mapTransactionErr(err, id)
	}
	return tx, nil
}

// Update overwrites the editable fields of an owned record.
func (s *LedgerService) Update(ctx context.Context, identity domain.Identity, id int64, fields domain.TransactionFields) (*domain.Transaction, error) {
	fields = normalizeFields(fields)
	if errs := fields.Validate(); errs != nil {
		return nil, apperrors.NewValidationError("Validation failed", errs)
	}
	ownerID, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.UpdateOwned(ctx, ownerID, id, fields)
	if err != nil {
		return nil, mapTransactionErr(err, id)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTransactionUpdated, tx.ID, identity.Username, payloadOf(tx)))
	return tx, nil
}

// Delete removes an owned record.
func (s *LedgerService) Delete(ctx context.Context, identity domain.Identity, id int64) error {
	ownerID, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return err
	}
	if err := s.transactions.DeleteOwned(ctx, ownerID, id); err != nil {
		return mapTransactionErr(err, id)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTransactionDeleted, id, identity.Username, nil))
	return nil
}

func (s *LedgerService) list(ctx context.Context, identity domain.Identity, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	ownerID, err := s.resolveOwner(ctx, identity)
	if err != nil {
		return nil, err
	}
	list, err := s.transactions.ListOwned(ctx, ownerID, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// resolveOwner maps the token subject to its user id. A subject without a
// backing user is NotFound.
func (s *LedgerService) resolveOwner(ctx context.Context, identity domain.Identity) (int64, error) {
	if identity.Username == "" {
		return 0, apperrors.NewUnauthorized("authentication required")
	}
	id, err := s.owners.ResolveOwnerID(ctx, identity.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("token subject has no backing user", zap.String("username", identity.Username))
			return 0, apperrors.NewNotFound("User", nil)
		}
		return 0, apperrors.NewInternalError(err)
	}
	return id, nil
}

func (s *LedgerService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func mapTransactionErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Transaction", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}

func normalizeFields(f domain.TransactionFields) domain.TransactionFields {
	f.Type = domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(f.Type))))
	f.Category = domain.Category(strings.ToUpper(strings.TrimSpace(string(f.Category))))
	f.Date = domain.TruncateDate(f.Date)
	if f.Description != nil {
		trimmed := strings.TrimSpace(*f.Description)
		if trimmed == "" {
			f.Description = nil
		} else {
			f.Description = &trimmed
		}
	}
	return f
}

func payloadOf(tx *domain.Transaction) events.TransactionPayload {
	return events.TransactionPayload{
		Type:     string(tx.Type),
		Category: string(tx.Category),
		Amount:   tx.Amount.StringFixed(2),
		Date:     tx.Date.Format(domain.DateLayout),
	}
}
