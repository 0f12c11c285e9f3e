package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ValerioMC/smart-ledger-be/internal/api/dto"
	"github.com/ValerioMC/smart-ledger-be/internal/auth"
	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/service"
	apperrors "github.com/ValerioMC/smart-ledger-be/pkg/util"
)

// TransactionsHandler exposes the caller's ledger. The identity always comes
// from the auth middleware, never from the request.
type TransactionsHandler struct {
	ledger *service.LedgerService
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(ledger *service.LedgerService) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger}
}

// Create handles POST /transactions.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	req, err := parseTransactionRequest(c)
	if err != nil {
		return err
	}

	tx, err := h.ledger.Create(c.UserContext(), identity, req.Fields())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// List handles GET /transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	list, err := h.ledger.List(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionListResponse(list))
}

// ListByType handles GET /transactions/type/:type.
func (h *TransactionsHandler) ListByType(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	list, err := h.ledger.ListByType(c.UserContext(), identity, domain.TransactionType(c.Params("type")))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionListResponse(list))
}

// ListByDateRange handles GET /transactions/date-range?startDate=&endDate=.
func (h *TransactionsHandler) ListByDateRange(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	fields := map[string]string{}
	start, ok := parseDateQuery(c, "startDate", fields)
	end, ok2 := parseDateQuery(c, "endDate", fields)
	if !ok || !ok2 {
		return apperrors.NewValidationError("Validation failed", fields)
	}

	list, err := h.ledger.ListByDateRange(c.UserContext(), identity, start, end)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionListResponse(list))
}

// Get handles GET /transactions/:id.
func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	tx, err := h.ledger.Get(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionResponse(tx))
}

// Update handles PUT /transactions/:id.
func (h *TransactionsHandler) Update(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	req, err := parseTransactionRequest(c)
	if err != nil {
		return err
	}

	tx, err := h.ledger.Update(c.UserContext(), identity, id, req.Fields())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionResponse(tx))
}

// Delete handles DELETE /transactions/:id.
func (h *TransactionsHandler) Delete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.ledger.Delete(c.UserContext(), identity, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func currentIdentity(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return identity, nil
}

func parseTransactionRequest(c *fiber.Ctx) (dto.TransactionRequest, error) {
	var req dto.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := req.Validate(); errs != nil {
		return req, apperrors.NewValidationError("Validation failed", errs)
	}
	return req, nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Validation failed", map[string]string{"id": "id must be a positive integer"})
	}
	return id, nil
}

func parseDateQuery(c *fiber.Ctx, key string, fields map[string]string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		fields[key] = key + " is required"
		return time.Time{}, false
	}
	d, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		fields[key] = key + " must be formatted as YYYY-MM-DD"
		return time.Time{}, false
	}
	return d, true
}
