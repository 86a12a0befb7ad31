package handlers

import (
	"github.com/gofiber/fiber/v2"

	"librarium/internal/services"
)

type StatsHandler struct {
	Stats *services.StatsService
}

func (h *StatsHandler) Get(c *fiber.Ctx) error {
	stats, err := h.Stats.Collect()
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, stats)
}
