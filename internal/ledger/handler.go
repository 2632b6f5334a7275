package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// Handler exposes ledger HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
	Sub      string `json:"sub"`
	Party    string `json:"party"`
	Account  string `json:"account"`
	Notes    string `json:"notes"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Sub       string    `json:"sub"`
	Party     string    `json:"party,omitempty"`
	Account   string    `json:"account,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Category:  string(t.Category),
		Status:    string(t.Status),
		Sub:       string(t.Sub),
		Party:     t.Detail.Party,
		Account:   t.Detail.Account,
		Notes:     t.Detail.Notes,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIllegalTransition):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Create opens a PENDING ledger entry.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := h.service.Create(c.UserContext(), CreateInput{
		UserID:   req.UserID,
		Type:     EntryType(req.Type),
		Amount:   req.Amount,
		Category: Category(req.Category),
		Sub:      wallet.Sub(req.Sub),
		Detail:   Detail{Party: req.Party, Account: req.Account, Notes: req.Notes},
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(t))
}

// Complete settles a pending entry.
func (h *Handler) Complete(c *fiber.Ctx) error {
	t, err := h.service.Complete(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(t))
}

// Fail marks a pending entry failed.
func (h *Handler) Fail(c *fiber.Ctx) error {
	t, err := h.service.Fail(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(t))
}

// Cancel voids a pending entry.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	t, err := h.service.Cancel(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(t))
}

// Get returns an entry by identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	t, err := h.service.Get(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(t))
}

// ListByUser returns a user's entries newest-first. Supports category, from
// and to query parameters; dates are RFC 3339.
func (h *Handler) ListByUser(c *fiber.Ctx) error {
	f := Filter{Category: Category(c.Query("category"))}
	if v := c.Query("from"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid from date: "+err.Error())
		}
		f.From = at
	}
	if v := c.Query("to"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid to date: "+err.Error())
		}
		f.To = at
	}
	list, err := h.service.ListByUser(c.UserContext(), c.Params("userId"), f)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toResponse(t))
	}
	return c.JSON(out)
}

// Summarize returns aggregate credit and debit totals over COMPLETED entries.
func (h *Handler) Summarize(c *fiber.Ctx) error {
	s, err := h.service.Summarize(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{
		"user_id":        s.UserID,
		"total_credited": s.TotalCredited,
		"total_debited":  s.TotalDebited,
		"credit_count":   s.CreditCount,
		"debit_count":    s.DebitCount,
	})
}
