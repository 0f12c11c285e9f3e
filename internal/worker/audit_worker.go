package worker

import (
	"github.com/ValerioMC/smart-ledger-be/internal/events"
	"github.com/ValerioMC/smart-ledger-be/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}

// StartEventExport forwards ledger events to the broker when one is configured.
func StartEventExport(dispatcher events.Dispatcher, publisher *events.AMQPPublisher) {
	if dispatcher == nil || publisher == nil {
		return
	}
	publisher.Subscribe(dispatcher)
}
