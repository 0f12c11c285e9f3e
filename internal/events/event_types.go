package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTransactionCreated EventType = "transaction_created"
	EventTransactionUpdated EventType = "transaction_updated"
	EventTransactionDeleted EventType = "transaction_deleted"
)

// AllEventTypes lists every type the ledger emits.
var AllEventTypes = []EventType{EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted}

// Event represents a ledger change emitted after a successful write.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	TransactionID int64       `json:"transactionId"`
	Actor         string      `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a fresh id and timestamp.
func NewEvent(eventType EventType, transactionID int64, actor string, payload interface{}) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		TransactionID: transactionID,
		Actor:         actor,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}

// TransactionPayload carries the record state after a create or update.
type TransactionPayload struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
}
