package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// TransactionRequest is the body of POST and PUT /transactions.
type TransactionRequest struct {
	Type        string           `json:"type" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	Description *string          `json:"description"`
}

var transactionMessages = fieldMessages{
	"type.required":     "Type is required",
	"category.required": "Category is required",
	"amount.required":   "Amount is required",
	"date.required":     "Date is required",
	"date.datetime":     "Date must be formatted as YYYY-MM-DD",
}

// Validate checks presence and format. Domain rules such as amount bounds are
// enforced by the ledger service.
func (r TransactionRequest) Validate() map[string]string {
	return check(r, transactionMessages)
}

// Fields converts a validated request into domain input.
func (r TransactionRequest) Fields() domain.TransactionFields {
	f := domain.TransactionFields{
		Type:        domain.TransactionType(r.Type),
		Category:    domain.Category(r.Category),
		Description: r.Description,
	}
	if r.Amount != nil {
		f.Amount = *r.Amount
	}
	if d, err := time.Parse(domain.DateLayout, r.Date); err == nil {
		f.Date = d
	}
	return f
}

// TransactionResponse is the wire form of a ledger record.
type TransactionResponse struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userId"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewTransactionResponse renders tx. Amounts always carry two decimals.
func NewTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        string(tx.Type),
		Category:    string(tx.Category),
		Amount:      json.Number(tx.Amount.StringFixed(2)),
		Date:        tx.Date.Format(domain.DateLayout),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

// NewTransactionListResponse renders a list, never nil.
func NewTransactionListResponse(list []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for i := range list {
		out = append(out, NewTransactionResponse(&list[i]))
	}
	return out
}
