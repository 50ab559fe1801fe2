package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for request stats, read back by the health endpoint.
const (
	KeyReqTotal  = "folio:health:req_total"
	KeyReqErrors = "folio:health:req_errors"
	KeyResTime   = "folio:health:res_time_total"
	KeyResCount  = "folio:health:res_count"
	KeyStartTime = "folio:health:start_time"
)

// HealthMarker records request stats in Redis (skips / and /health*).
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		ctx := context.Background()
		start := time.Now()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(time.Since(start).Milliseconds())).Result()
		if c.Response().StatusCode() >= 500 {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
		}
		return err
	}
}
