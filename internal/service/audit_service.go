package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ValerioMC/smart-ledger-be/internal/events"
)

// AuditService writes one structured log line per ledger change.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service. Audit lines are written under the "audit" logger name.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range events.AllEventTypes {
		a.dispatcher.Subscribe(t, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("transaction_id", event.TransactionID),
		zap.String("actor", event.Actor),
		zap.Time("at", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.TransactionPayload); ok {
		fields = append(fields,
			zap.String("type", payload.Type),
			zap.String("category", payload.Category),
			zap.String("amount", payload.Amount),
			zap.String("date", payload.Date))
	}
	a.logger.Info("ledger change", fields...)
	return nil
}
