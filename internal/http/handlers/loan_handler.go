package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"librarium/internal/domain"
	"librarium/internal/repos"
	"librarium/internal/services"
	"librarium/internal/validate"
)

type LoanHandler struct {
	Loans *services.LoanService
	Audit *services.Audit
}

type loanRequest struct {
	CustID *int64 `json:"cust_id"`
	BookID *int64 `json:"book_id"`
}

func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req loanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if req.CustID == nil || req.BookID == nil {
		return badRequest(c, "missing_fields", "invalid data, all fields are required")
	}

	confirmation, err := h.Loans.Create(*req.CustID, *req.BookID)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusCreated, fiber.Map{
		"loan_id":         confirmation.LoanID,
		"book_id":         confirmation.BookID,
		"book_name":       confirmation.BookName,
		"cust_id":         confirmation.CustID,
		"cust_name":       confirmation.CustName,
		"book_quantity":   confirmation.BookQuantity,
		"is_out_of_stock": confirmation.OutOfStock,
		"return_due_date": domain.FormatTime(confirmation.DueDate),
	})
}

func (h *LoanHandler) Return(c *fiber.Ctx) error {
	var req loanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if req.CustID == nil || req.BookID == nil {
		h.Audit.Record("User tried to return a book and did not enter all necessary fields")
		return badRequest(c, "missing_fields", "invalid data, all fields are required")
	}

	receipt, err := h.Loans.Return(*req.CustID, *req.BookID)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusCreated, fiber.Map{
		"loan_id":            receipt.LoanID,
		"book_id":            receipt.BookID,
		"book_name":          receipt.BookName,
		"cust_id":            receipt.CustID,
		"cust_name":          receipt.CustName,
		"previous_quantity":  receipt.PreviousQuantity,
		"new_quantity":       receipt.NewQuantity,
		"late":               receipt.Late,
		"return_due_date":    domain.FormatTime(receipt.DueDate),
		"actual_return_date": domain.FormatTime(receipt.ReturnedAt),
	})
}

func (h *LoanHandler) Search(c *fiber.Ctx) error {
	raw := map[string]string{
		"cust_id":    c.Query("cust_id"),
		"book_id":    c.Query("book_id"),
		"start_date": c.Query("start_date"),
		"end_date":   c.Query("end_date"),
	}

	var filter repos.LoanFilter
	if raw["cust_id"] != "" {
		id, ok := validate.ID(raw["cust_id"])
		if !ok {
			return badRequest(c, "invalid_id", "cust_id must be a positive integer")
		}
		filter.CustID = id
	}
	if raw["book_id"] != "" {
		id, ok := validate.ID(raw["book_id"])
		if !ok {
			return badRequest(c, "invalid_id", "book_id must be a positive integer")
		}
		filter.BookID = id
	}
	if raw["start_date"] != "" {
		from, ok := validate.Date(raw["start_date"])
		if !ok {
			return badRequest(c, "invalid_date", "invalid date format, please use 'YYYY-MM-DD'")
		}
		filter.From = &from
	}
	if raw["end_date"] != "" {
		// End date is inclusive of the whole day.
		end, ok := validate.Date(raw["end_date"])
		if !ok {
			return badRequest(c, "invalid_date", "invalid date format, please use 'YYYY-MM-DD'")
		}
		before := end.Add(24 * time.Hour)
		filter.Before = &before
	}

	loans, err := h.Loans.Search(filter, raw)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, loansJSON(loans))
}

func (h *LoanHandler) Late(c *fiber.Ctx) error {
	late, err := h.Loans.Late()
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, loansJSON(late))
}

func (h *LoanHandler) ReturnedHistory(c *fiber.Ctx) error {
	raw := map[string]string{
		"name": c.Query("name"),
		"id":   c.Query("id"),
	}

	var custID int64
	if raw["id"] != "" {
		id, ok := validate.ID(raw["id"])
		if !ok {
			return badRequest(c, "invalid_id", "customer id must be a positive integer")
		}
		custID = id
	}

	returned, err := h.Loans.ReturnedHistory(raw["name"], custID, raw)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]fiber.Map, 0, len(returned))
	for _, r := range returned {
		out = append(out, fiber.Map{
			"id":            r.ID,
			"loan_id":       r.LoanID,
			"cust_id":       r.CustID,
			"cust_name":     r.CustName,
			"cust_phone":    r.CustPhone,
			"book_name":     r.BookName,
			"loan_date":     domain.FormatTime(r.LoanDate),
			"returned_date": domain.FormatTime(r.ReturnedDate),
		})
	}
	return respond(c, fiber.StatusOK, out)
}

func loansJSON(loans []domain.Loan) []fiber.Map {
	out := make([]fiber.Map, 0, len(loans))
	for _, l := range loans {
		out = append(out, fiber.Map{
			"loan_id":         l.ID,
			"cust_id":         l.CustID,
			"cust_name":       l.CustName,
			"cust_phone":      l.CustPhone,
			"book_id":         l.BookID,
			"book_name":       l.BookName,
			"loan_date":       domain.FormatTime(l.LoanDate),
			"return_due_date": domain.FormatTime(l.DueDate),
		})
	}
	return out
}
