package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports readiness of the optional backing stores. A nil pool
// or client reports "disabled".
type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	startAt time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, rdb: rdb, startAt: time.Now()}
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database": checkDB(ctx, h.pool),
		"redis":    checkRedis(ctx, h.rdb),
	}
	overall := "healthy"
	for _, v := range checks {
		if m, ok := v.(fiber.Map); ok && m["status"] == "down" {
			overall = "degraded"
		}
	}

	status := fiber.StatusOK
	if overall != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":         overall,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}

func checkDB(ctx context.Context, pool *pgxpool.Pool) fiber.Map {
	if pool == nil {
		return fiber.Map{"status": "disabled"}
	}
	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return fiber.Map{"status": "down", "latency_ms": latency, "error": "connection failed"}
	}
	return fiber.Map{"status": "up", "latency_ms": latency}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{"status": "disabled"}
	}
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return fiber.Map{"status": "down", "latency_ms": latency, "error": "connection failed"}
	}
	return fiber.Map{"status": "up", "latency_ms": latency}
}
