package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/ledger"
)

// RegisterLedgerRoutes wires transaction ledger endpoints.
func RegisterLedgerRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transactions", h.Create)
	r.Get("/transactions/:transactionId", h.Get)
	r.Post("/transactions/:transactionId/complete", h.Complete)
	r.Post("/transactions/:transactionId/fail", h.Fail)
	r.Post("/transactions/:transactionId/cancel", h.Cancel)
	r.Get("/users/:userId/transactions", h.ListByUser)
	r.Get("/users/:userId/transactions/summary", h.Summarize)
}
