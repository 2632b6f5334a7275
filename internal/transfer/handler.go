package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// Handler exposes the wallet-to-wallet transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       int64  `json:"amount"`
	Notes        string `json:"notes"`
	UserID       string `json:"user_id"`
}

// Transfer moves funds between two primary balances.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Transfer(c.UserContext(), Input{
		FromWalletID:    req.FromWalletID,
		ToWalletID:      req.ToWalletID,
		Amount:          req.Amount,
		Notes:           req.Notes,
		RequestorUserID: req.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrNotOwner):
			return fiber.NewError(http.StatusForbidden, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(fiber.Map{
		"debit_entry_id":  res.DebitEntryID,
		"credit_entry_id": res.CreditEntryID,
		"from_balance":    res.FromBalance,
		"to_balance":      res.ToBalance,
		"completed_at":    res.CompletedAt,
	})
}
