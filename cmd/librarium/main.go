package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"librarium/internal/config"
	"librarium/internal/http/handlers"
	applog "librarium/internal/log"
	"librarium/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   fiber.Map{"code": "internal", "message": "unknown error occurred"},
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(recover.New())

	searchLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Warn(c, "rate.search.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db)

	app.Get("/", deps.AdminHandler.Home)

	app.Post("/customers", deps.CustomerHandler.Add)
	app.Get("/customers", searchLimiter, deps.CustomerHandler.Search)
	app.Put("/customers/:id/activate", deps.CustomerHandler.Activate)
	app.Put("/customers/:id/deactivate", deps.CustomerHandler.Deactivate)

	app.Post("/books", deps.BookHandler.Add)
	app.Get("/books", searchLimiter, deps.BookHandler.Search)
	app.Put("/books/quantity", deps.BookHandler.UpdateQuantity)
	app.Put("/books/:id/activate", deps.BookHandler.Activate)
	app.Put("/books/:id/deactivate", deps.BookHandler.Deactivate)

	app.Post("/loans", deps.LoanHandler.Create)
	app.Post("/loans/return", deps.LoanHandler.Return)
	app.Get("/loans/late", deps.LoanHandler.Late)
	app.Get("/loans", searchLimiter, deps.LoanHandler.Search)

	app.Get("/returns", searchLimiter, deps.LoanHandler.ReturnedHistory)
	app.Get("/logs", deps.LogsHandler.List)
	app.Get("/stats", deps.StatsHandler.Get)
	app.Post("/reset", deps.AdminHandler.Reset)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(cfg.Addr))
}
