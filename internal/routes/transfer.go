package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/transfer"
)

// RegisterTransferRoutes wires the wallet-to-wallet transfer endpoint.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfers", h.Transfer)
}
