package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Post("/wallets/:walletId/credit", h.Credit)
	r.Post("/wallets/:walletId/debit", h.Debit)
	r.Patch("/wallets/:walletId/status", h.SetStatus)
	r.Put("/wallets/:walletId/pin", h.SetPin)
	r.Post("/wallets/:walletId/pin/verify", h.VerifyPin)
	r.Get("/users/:userId/wallet", h.GetByUser)
}
