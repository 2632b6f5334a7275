package topup

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// Handler exposes top-up HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a top-up HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID        string `json:"user_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	Sub           string `json:"sub"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	BankReference string `json:"bank_reference"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type requestResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Amount          int64      `json:"amount"`
	Method          string     `json:"method"`
	Sub             string     `json:"sub"`
	Status          string     `json:"status"`
	BankName        string     `json:"bank_name,omitempty"`
	BankAccount     string     `json:"bank_account,omitempty"`
	BankReference   string     `json:"bank_reference,omitempty"`
	ApprovalTime    *time.Time `json:"approval_time,omitempty"`
	RejectionTime   *time.Time `json:"rejection_time,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toResponse(r Request) requestResponse {
	return requestResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		Amount:          r.Amount,
		Method:          string(r.Method),
		Sub:             string(r.Sub),
		Status:          string(r.Status),
		BankName:        r.Bank.Name,
		BankAccount:     r.Bank.Account,
		BankReference:   r.Bank.Reference,
		ApprovalTime:    r.ApprovalTime,
		RejectionTime:   r.RejectionTime,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
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

// Create files a PENDING top-up request.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sub := wallet.Sub(req.Sub)
	if req.Sub == "" {
		sub = wallet.SubPrimary
	}
	r, err := h.service.Create(c.UserContext(), CreateInput{
		UserID: req.UserID,
		Amount: req.Amount,
		Method: Method(req.Method),
		Sub:    sub,
		Bank:   Bank{Name: req.BankName, Account: req.BankAccount, Reference: req.BankReference},
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(r))
}

// Approve credits the wallet and settles the request.
func (h *Handler) Approve(c *fiber.Ctx) error {
	r, err := h.service.Approve(c.UserContext(), c.Params("requestId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(r))
}

// Reject marks a pending request rejected.
func (h *Handler) Reject(c *fiber.Ctx) error {
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	r, err := h.service.Reject(c.UserContext(), c.Params("requestId"), req.Reason)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(r))
}

// Get returns a request by identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	r, err := h.service.Get(c.UserContext(), c.Params("requestId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(r))
}

// ListPending returns the review queue oldest-first.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	list, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]requestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResponse(r))
	}
	return c.JSON(out)
}

// ListByUser returns a user's requests, optionally filtered by status.
func (h *Handler) ListByUser(c *fiber.Ctx) error {
	list, err := h.service.ListByUser(c.UserContext(), c.Params("userId"), Status(c.Query("status")))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]requestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResponse(r))
	}
	return c.JSON(out)
}

// Summarize returns per-status aggregates of a user's requests.
func (h *Handler) Summarize(c *fiber.Ctx) error {
	s, err := h.service.Summarize(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{
		"user_id":        s.UserID,
		"pending_count":  s.PendingCount,
		"pending_amount": s.PendingAmount,
		"success_count":  s.SuccessCount,
		"success_total":  s.SuccessTotal,
		"rejected_count": s.RejectedCount,
	})
}
