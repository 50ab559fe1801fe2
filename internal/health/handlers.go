package health

import (
	"context"
	"time"

	"folio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handlers serves the health endpoint from the Redis request counters
// written by the health marker middleware.
type Handlers struct {
	Rdb       *redis.Client
	DB        *gorm.DB
	StartedAt time.Time
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	ctx := context.Background()

	dbStatus := "not configured"
	if h.DB != nil {
		dbStatus = "ok"
		if sqlDB, err := h.DB.DB(); err != nil {
			dbStatus = "error: " + err.Error()
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	redisStatus := "not configured"
	var reqTotal, reqErrors, resCount int64
	var resTimeTotal float64
	if h.Rdb != nil {
		redisStatus = "ok"
		if err := h.Rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		} else {
			reqTotal, _ = h.Rdb.Get(ctx, middleware.KeyReqTotal).Int64()
			reqErrors, _ = h.Rdb.Get(ctx, middleware.KeyReqErrors).Int64()
			resCount, _ = h.Rdb.Get(ctx, middleware.KeyResCount).Int64()
			resTimeTotal, _ = h.Rdb.Get(ctx, middleware.KeyResTime).Float64()
		}
	}

	avgMs := 0.0
	if resCount > 0 {
		avgMs = resTimeTotal / float64(resCount)
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
		"database":       dbStatus,
		"redis":          redisStatus,
		"requests": fiber.Map{
			"total":       reqTotal,
			"errors":      reqErrors,
			"avg_time_ms": avgMs,
		},
	})
}
