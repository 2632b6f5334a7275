package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// HeaderIdempotencyKey is the client-supplied deduplication key required
	// on every mutating request.
	HeaderIdempotencyKey = "Idempotency-Key"

	idempotencyPrefix = "paisacore:idem:"
	pendingMarker     = "pending"
	storeTimeout      = 2 * time.Second
)

type replayRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency deduplicates mutating requests through Redis. The first request
// with a given key reserves it, runs the handler and stores the response;
// replays with the same key get the stored response back without re-running
// the handler. A replay arriving while the first request is still in flight
// is rejected with 409. Failed handlers release the key so the client can
// retry.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		reserved, err := cache.SetNX(ctx, cacheKey, pendingMarker, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store unavailable")
		}

		if !reserved {
			stored, err := cache.Get(ctx, cacheKey).Result()
			if err != nil {
				logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency store unavailable")
			}
			if stored == pendingMarker {
				return fiber.NewError(fiber.StatusConflict, "request with this key is still processing")
			}
			var rec replayRecord
			if err := json.Unmarshal([]byte(stored), &rec); err != nil {
				logger.Warn("stored idempotent response unreadable", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			return c.Status(rec.Status).Send(rec.Body)
		}

		release := func() {
			relCtx, relCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer relCancel()
			cache.Del(relCtx, cacheKey)
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}

		status := c.Response().StatusCode()
		if status >= 500 {
			// do not pin server failures; let the client retry the same key
			release()
			return nil
		}

		payload, err := json.Marshal(replayRecord{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			logger.Error("encode idempotent response", slog.String("key", key), slog.Any("error", err))
			release()
			return nil
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), storeTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("persist idempotent response", slog.String("key", key), slog.Any("error", err))
			release()
		}
		return nil
	}
}
