package payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes payment HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a payment HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID     string `json:"user_id"`
	Type       string `json:"type"`
	Amount     int64  `json:"amount"`
	BankName   string `json:"bank_name"`
	HolderName string `json:"holder_name"`
	Instrument string `json:"instrument"`
	Reference  string `json:"reference"`
}

type failRequest struct {
	Reason string `json:"reason"`
}

type paymentResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Amount       int64      `json:"amount"`
	Fee          int64      `json:"fee"`
	Status       string     `json:"status"`
	BankName     string     `json:"bank_name,omitempty"`
	HolderName   string     `json:"holder_name,omitempty"`
	Instrument   string     `json:"instrument,omitempty"`
	Reference    string     `json:"reference,omitempty"`
	ActionTime   *time.Time `json:"action_time,omitempty"`
	ActionReason string     `json:"action_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toResponse(p Payment) paymentResponse {
	return paymentResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Type:         string(p.Type),
		Amount:       p.Amount,
		Fee:          p.Fee,
		Status:       string(p.Status),
		BankName:     p.Detail.BankName,
		HolderName:   p.Detail.HolderName,
		Instrument:   p.Detail.Instrument,
		Reference:    p.Detail.Reference,
		ActionTime:   p.ActionTime,
		ActionReason: p.ActionReason,
		CreatedAt:    p.CreatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, ErrDeclined):
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}

// Create opens a PENDING payment.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Create(c.UserContext(), CreateInput{
		UserID: req.UserID,
		Type:   Type(req.Type),
		Amount: req.Amount,
		Detail: Detail{
			BankName:   req.BankName,
			HolderName: req.HolderName,
			Instrument: req.Instrument,
			Reference:  req.Reference,
		},
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(p))
}

// Complete settles a pending payment into the wallet.
func (h *Handler) Complete(c *fiber.Ctx) error {
	p, err := h.service.Complete(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(p))
}

// Fail marks a pending payment failed.
func (h *Handler) Fail(c *fiber.Ctx) error {
	var req failRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Fail(c.UserContext(), c.Params("paymentId"), req.Reason)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(p))
}

// Get returns a payment by identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(p))
}

// ListByUser returns a user's payments, optionally filtered by status.
func (h *Handler) ListByUser(c *fiber.Ctx) error {
	list, err := h.service.ListByUser(c.UserContext(), c.Params("userId"), Status(c.Query("status")))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	return c.JSON(out)
}

// Summarize returns per-status aggregates of a user's payments.
func (h *Handler) Summarize(c *fiber.Ctx) error {
	s, err := h.service.Summarize(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{
		"user_id":         s.UserID,
		"pending_count":   s.PendingCount,
		"pending_amount":  s.PendingAmount,
		"completed_count": s.CompletedCount,
		"completed_total": s.CompletedTotal,
		"failed_count":    s.FailedCount,
	})
}
