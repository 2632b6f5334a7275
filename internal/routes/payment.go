package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisaone/paisa_core/internal/payment"
)

// RegisterPaymentRoutes wires payment intake endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payment.Handler) {
	r.Post("/payments", h.Create)
	r.Get("/payments/:paymentId", h.Get)
	r.Post("/payments/:paymentId/complete", h.Complete)
	r.Post("/payments/:paymentId/fail", h.Fail)
	r.Get("/users/:userId/payments", h.ListByUser)
	r.Get("/users/:userId/payments/summary", h.Summarize)
}
