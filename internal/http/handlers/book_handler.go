package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"librarium/internal/apperr"
	"librarium/internal/domain"
	"librarium/internal/repos"
	"librarium/internal/services"
	"librarium/internal/validate"
)

type BookHandler struct {
	Catalog *services.CatalogService
	Audit   *services.Audit
}

type addBookRequest struct {
	Name          *string `json:"name"`
	Author        *string `json:"author"`
	YearPublished *int    `json:"year_published"`
	Type          *int    `json:"type"`
	Category      *string `json:"category"`
}

func (h *BookHandler) Add(c *fiber.Ctx) error {
	var req addBookRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}

	var missing []apperr.Detail
	for field, set := range map[string]bool{
		"name":           req.Name != nil,
		"author":         req.Author != nil,
		"year_published": req.YearPublished != nil,
		"type":           req.Type != nil,
		"category":       req.Category != nil,
	} {
		if !set {
			missing = append(missing, apperr.Detail{Field: field, Message: "required"})
		}
	}
	if len(missing) > 0 {
		h.Audit.Record("User tried to add a book with missing required fields")
		return badRequest(c, "missing_fields", "missing required fields", missing...)
	}

	name, ok := validate.Name(*req.Name)
	if !ok {
		return badRequest(c, "invalid_name", "name must be a non-empty string",
			apperr.Detail{Field: "name", Message: "must be 1-100 characters"})
	}

	book, err := h.Catalog.AddBook(services.AddBookInput{
		Name:          name,
		Author:        *req.Author,
		YearPublished: *req.YearPublished,
		LoanType:      *req.Type,
		Category:      *req.Category,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusCreated, book)
}

type updateQuantityRequest struct {
	BookID   *int64       `json:"book_id"`
	Quantity *json.Number `json:"quantity"`
}

func (h *BookHandler) UpdateQuantity(c *fiber.Ctx) error {
	var req updateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if req.BookID == nil || req.Quantity == nil {
		return badRequest(c, "missing_fields", "missing required fields, 'book_id' or 'quantity' or both")
	}
	quantity, err := req.Quantity.Int64()
	if err != nil {
		return badRequest(c, "invalid_quantity", "invalid quantity, please provide a valid integer",
			apperr.Detail{Field: "quantity", Message: "must be an integer"})
	}

	change, err := h.Catalog.SetQuantity(*req.BookID, int(quantity))
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, change)
}

func (h *BookHandler) Activate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid_id", "book id must be a positive integer")
	}
	book, err := h.Catalog.Activate(id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, book)
}

func (h *BookHandler) Deactivate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid_id", "book id must be a positive integer")
	}
	book, err := h.Catalog.Deactivate(id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, book)
}

func (h *BookHandler) Search(c *fiber.Ctx) error {
	raw := map[string]string{
		"name":         c.Query("name"),
		"author":       c.Query("author"),
		"category":     c.Query("category"),
		"out_of_stock": c.Query("out_of_stock"),
	}

	filter := repos.BookFilter{Name: raw["name"], Author: raw["author"]}
	if raw["category"] != "" {
		category, ok := domain.ParseCategory(raw["category"])
		if !ok {
			return badRequest(c, "invalid_category", "invalid category: "+raw["category"])
		}
		filter.Category = &category
	}
	if raw["out_of_stock"] != "" {
		outOfStock, ok := validate.Bool(raw["out_of_stock"])
		if !ok {
			return badRequest(c, "invalid_boolean", "invalid value in out_of_stock, use 'true' or 'false'")
		}
		filter.OutOfStock = &outOfStock
	}

	books, err := h.Catalog.Search(filter, raw)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, books)
}
