package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the per-request trace identifier.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns a request identifier when the client did not send one
// and echoes it on the response so callers can correlate logs.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Locals(HeaderRequestID, id)
		return c.Next()
	}
}
