package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"librarium/internal/domain"
	"librarium/internal/repos"
	"librarium/internal/services"
	"librarium/internal/validate"
)

type LogsHandler struct {
	Log   *repos.AuditRepo
	Audit *services.Audit
}

// List returns audit entries newest first, optionally bounded by an
// inclusive date range.
func (h *LogsHandler) List(c *fiber.Ctx) error {
	var from, before *time.Time
	if raw := c.Query("start_date"); raw != "" {
		t, ok := validate.Date(raw)
		if !ok {
			return badRequest(c, "invalid_date", "invalid date format, please use 'YYYY-MM-DD'")
		}
		from = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, ok := validate.Date(raw)
		if !ok {
			return badRequest(c, "invalid_date", "invalid date format, please use 'YYYY-MM-DD'")
		}
		end := t.Add(24 * time.Hour)
		before = &end
	}

	entries, err := h.Log.List(from, before)
	if err != nil {
		return respondErr(c, err)
	}

	h.Audit.Record("User has queried the log entries, start_date=[%s] end_date=[%s]",
		orDash(c.Query("start_date")), orDash(c.Query("end_date")))

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":        e.ID,
			"action":    e.Action,
			"timestamp": domain.FormatTime(e.At),
		})
	}
	return respond(c, fiber.StatusOK, out)
}

func orDash(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
