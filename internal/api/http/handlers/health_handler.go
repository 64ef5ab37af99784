package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/persistence"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	version  string
}

// NewHealthHandler wires the probes.
func NewHealthHandler(postgres *persistence.Postgres, redis *persistence.Redis, version string) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis, version: version}
}

// Live reports the process is running.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"status":  "ok",
		"version": h.version,
	})
}

// Ready reports dependency health. The in-memory store and unconfigured
// Redis count as healthy since the service runs without them.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if h.postgres.PoolHandle() == nil {
		checks["postgres"] = "in-memory"
	} else if err := h.postgres.Ping(c.UserContext()); err != nil {
		checks["postgres"] = "unreachable"
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis == nil || h.redis.Client == nil {
		checks["redis"] = "disabled"
	} else if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = "unreachable"
	} else {
		checks["redis"] = "ok"
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": healthy,
		"checks":  checks,
	})
}
