package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/topup"
)

// RegisterTopUpRoutes wires top-up request endpoints.
func RegisterTopUpRoutes(r fiber.Router, h *topup.Handler) {
	r.Post("/topups", h.Create)
	r.Get("/topups/pending", h.ListPending)
	r.Get("/topups/:requestId", h.Get)
	r.Post("/topups/:requestId/approve", h.Approve)
	r.Post("/topups/:requestId/reject", h.Reject)
	r.Get("/users/:userId/topups", h.ListByUser)
	r.Get("/users/:userId/topups/summary", h.Summarize)
}
