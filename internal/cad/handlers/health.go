package handlers

import (
	"cad-bridge/internal/cad/bridge"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

type Health struct {
	bridge *bridge.Bridge
}

func NewHealth(b *bridge.Bridge) *Health {
	return &Health{bridge: b}
}

// LivenessProbe reports that the process serves HTTP.
func (h *Health) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe is ready only while the pump is draining the queue.
func (h *Health) ReadinessProbe(c fiber.Ctx) error {
	if !h.bridge.Running() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "pump stopped",
		})
	}
	return c.JSON(fiber.Map{
		"status":  "ready",
		"pending": h.bridge.Pending(),
	})
}

func (h *Health) StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
