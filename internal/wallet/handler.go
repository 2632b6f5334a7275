package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID string `json:"user_id"`
}

type moveRequest struct {
	Sub    string `json:"sub"`
	Amount int64  `json:"amount"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type pinRequest struct {
	Pin string `json:"pin"`
}

type walletResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	PrimaryBalance int64     `json:"primary_balance"`
	SafeBalance    int64     `json:"safe_balance"`
	TotalBalance   int64     `json:"total_balance"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:             w.ID,
		UserID:         w.UserID,
		PrimaryBalance: w.PrimaryBalance,
		SafeBalance:    w.SafeBalance,
		TotalBalance:   w.Total(),
		Status:         string(w.Status),
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWalletExists):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// Create provisions the single wallet for a user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Create(c.UserContext(), req.UserID)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Get returns a wallet by identifier.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// GetByUser returns the wallet owned by a user.
func (h *Handler) GetByUser(c *fiber.Ctx) error {
	w, err := h.service.GetByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// Balance returns the wallet's sub-balances and their sum.
func (h *Handler) Balance(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{
		"wallet_id": w.ID,
		"primary":   w.PrimaryBalance,
		"safe":      w.SafeBalance,
		"total":     w.Total(),
	})
}

// Credit increases a sub-balance.
func (h *Handler) Credit(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Credit(c.UserContext(), c.Params("walletId"), Sub(req.Sub), req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// Debit decreases a sub-balance.
func (h *Handler) Debit(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Debit(c.UserContext(), c.Params("walletId"), Sub(req.Sub), req.Amount)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// SetStatus changes the administrative status.
func (h *Handler) SetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.SetStatus(c.UserContext(), c.Params("walletId"), Status(req.Status))
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(toResponse(w))
}

// SetPin stores the wallet PIN.
func (h *Handler) SetPin(c *fiber.Ctx) error {
	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.SetPin(c.UserContext(), c.Params("walletId"), req.Pin); err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// VerifyPin checks a candidate PIN against the stored hash.
func (h *Handler) VerifyPin(c *fiber.Ctx) error {
	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ok, err := h.service.VerifyPin(c.UserContext(), c.Params("walletId"), req.Pin)
	if err != nil {
		return fiber.NewError(statusFor(err), err.Error())
	}
	return c.JSON(fiber.Map{"valid": ok})
}
