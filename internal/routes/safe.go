package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/safe"
)

// RegisterSafeRoutes wires safe deposit endpoints.
func RegisterSafeRoutes(r fiber.Router, h *safe.Handler) {
	r.Post("/safes", h.Create)
	r.Get("/safes/:safeId", h.Get)
	r.Post("/safes/:safeId/interest", h.MarkInterest)
	r.Post("/safes/:safeId/withdraw", h.Withdraw)
	r.Get("/users/:userId/safes", h.ListByUser)
}
