package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	applog "librarium/internal/log"
	"librarium/internal/repos"
	"librarium/internal/services"
)

// AdminHandler covers the staff-facing extras: the landing page with its
// late-loan alert and the dev/demo database reset.
type AdminHandler struct {
	DB    *sqlx.DB
	Loans *repos.LoanRepo
	Audit *services.Audit
}

func (h *AdminHandler) Home(c *fiber.Ctx) error {
	late, err := h.Loans.Late(time.Now().UTC())
	if err != nil {
		applog.Error(c, "home.latecheck", err, nil)
		late = nil
	}
	if len(late) > 0 {
		h.Audit.Record("User started the application and late loans were found")
		c.Set("X-Alert-Message", "There are late loans. Please check the 'Late Loans' section.")
	}
	return c.Render("home", fiber.Map{
		"LateLoanCount": len(late),
	})
}

// Reset wipes and reseeds the store. Dev/demo only.
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	if err := repos.ResetDB(h.DB); err != nil {
		return respondErr(c, err)
	}
	applog.Warn(c, "db.reset", nil)
	h.Audit.Record("USER has reset the database with 5 new customers and 5 sample books")
	return respond(c, fiber.StatusCreated, fiber.Map{
		"message": "database was reset successfully",
	})
}
