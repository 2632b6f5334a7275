package safe

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes safe deposit HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a safe deposit HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID   string `json:"user_id"`
	Amount   int64  `json:"amount"`
	TermDays int    `json:"term_days"`
}

type interestRequest struct {
	Interest int64 `json:"interest"`
}

type depositResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	WalletID        string     `json:"wallet_id"`
	Amount          int64      `json:"amount"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	WithdrawDate    *time.Time `json:"withdraw_date,omitempty"`
	Interest        int64      `json:"interest"`
	InterestUpdated bool       `json:"interest_updated"`
	Withdrawn       bool       `json:"withdrawn"`
	Matured         bool       `json:"matured"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toResponse(d Deposit) depositResponse {
	return depositResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		WalletID:        d.WalletID,
		Amount:          d.Amount,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		WithdrawDate:    d.WithdrawDate,
		Interest:        d.Interest,
		InterestUpdated: d.InterestUpdated,
		Withdrawn:       d.Withdrawn,
		Matured:         d.Matured(time.Now().UTC()),
		CreatedAt:       d.CreatedAt,
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

// Create locks funds into a new safe deposit.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	d, err := h.service.Create(c.UserContext(), CreateInput{
		UserID:   req.UserID,
		Amount:   req.Amount,
		TermDays: req.TermDays,
	})
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(d))
}

// MarkInterest records externally accrued interest.
func (h *Handler) MarkInterest(c *fiber.Ctx) error {
	var req interestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	d, err := h.service.MarkInterest(c.UserContext(), c.Params("safeId"), req.Interest)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(d))
}

// Withdraw releases the deposit back to the primary balance.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	d, err := h.service.Withdraw(c.UserContext(), c.Params("safeId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(d))
}

// Get returns a deposit by identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	d, err := h.service.Get(c.UserContext(), c.Params("safeId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(d))
}

// ListByUser returns a user's deposits newest-first.
func (h *Handler) ListByUser(c *fiber.Ctx) error {
	list, err := h.service.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	out := make([]depositResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toResponse(d))
	}
	return c.JSON(out)
}
