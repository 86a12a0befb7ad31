package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"librarium/internal/http/handlers"
	"librarium/internal/repos"
)

// newTestApp wires the production route table against a seeded in-memory
// store. Rate limiting is left out so tests can hammer the search routes.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()

	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(recover.New())

	deps := handlers.NewDeps(db)

	app.Get("/", deps.AdminHandler.Home)

	app.Post("/customers", deps.CustomerHandler.Add)
	app.Get("/customers", deps.CustomerHandler.Search)
	app.Put("/customers/:id/activate", deps.CustomerHandler.Activate)
	app.Put("/customers/:id/deactivate", deps.CustomerHandler.Deactivate)

	app.Post("/books", deps.BookHandler.Add)
	app.Get("/books", deps.BookHandler.Search)
	app.Put("/books/quantity", deps.BookHandler.UpdateQuantity)
	app.Put("/books/:id/activate", deps.BookHandler.Activate)
	app.Put("/books/:id/deactivate", deps.BookHandler.Deactivate)

	app.Post("/loans", deps.LoanHandler.Create)
	app.Post("/loans/return", deps.LoanHandler.Return)
	app.Get("/loans/late", deps.LoanHandler.Late)
	app.Get("/loans", deps.LoanHandler.Search)

	app.Get("/returns", deps.LoanHandler.ReturnedHistory)
	app.Get("/logs", deps.LogsHandler.List)
	app.Get("/stats", deps.StatsHandler.Get)
	app.Post("/reset", deps.AdminHandler.Reset)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	return app, db
}

// doJSON sends a request with an optional JSON payload and decodes the
// JSON envelope. The decoded map is nil for non-JSON responses.
func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func envelopeData(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	require.Equal(t, true, m["success"])
	data, ok := m["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %v", m["data"])
	return data
}

func envelopeList(t *testing.T, m map[string]any) []any {
	t.Helper()
	require.Equal(t, true, m["success"])
	list, ok := m["data"].([]any)
	require.True(t, ok, "data is not a list: %v", m["data"])
	return list
}

func envelopeError(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	require.Equal(t, false, m["success"])
	e, ok := m["error"].(map[string]any)
	require.True(t, ok, "error is not an object: %v", m["error"])
	return e
}
