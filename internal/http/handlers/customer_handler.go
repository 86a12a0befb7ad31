package handlers

import (
	"github.com/gofiber/fiber/v2"

	"librarium/internal/apperr"
	"librarium/internal/repos"
	"librarium/internal/services"
	"librarium/internal/validate"
)

type CustomerHandler struct {
	Customers *services.CustomerService
	Audit     *services.Audit
}

type addCustomerRequest struct {
	Name        *string `json:"name"`
	City        *string `json:"city"`
	Age         *int    `json:"age"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *CustomerHandler) Add(c *fiber.Ctx) error {
	var req addCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}

	var missing []apperr.Detail
	for field, set := range map[string]bool{
		"name":         req.Name != nil,
		"city":         req.City != nil,
		"age":          req.Age != nil,
		"phone_number": req.PhoneNumber != nil,
	} {
		if !set {
			missing = append(missing, apperr.Detail{Field: field, Message: "required"})
		}
	}
	if len(missing) > 0 {
		h.Audit.Record("User tried to add a customer with missing required fields")
		return badRequest(c, "missing_fields", "missing required fields", missing...)
	}

	customer, err := h.Customers.Add(services.AddCustomerInput{
		Name:        *req.Name,
		City:        *req.City,
		Age:         *req.Age,
		PhoneNumber: *req.PhoneNumber,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusCreated, customer)
}

func (h *CustomerHandler) Activate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid_id", "customer id must be a positive integer")
	}
	customer, err := h.Customers.Activate(id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, customer)
}

func (h *CustomerHandler) Deactivate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid_id", "customer id must be a positive integer")
	}
	customer, err := h.Customers.Deactivate(id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, customer)
}

func (h *CustomerHandler) Search(c *fiber.Ctx) error {
	raw := map[string]string{
		"id":             c.Query("id"),
		"name":           c.Query("name"),
		"phone_number":   c.Query("phone_number"),
		"is_deactivated": c.Query("is_deactivated"),
	}

	filter := repos.CustomerFilter{Name: raw["name"], Phone: raw["phone_number"]}
	if raw["id"] != "" {
		id, ok := validate.ID(raw["id"])
		if !ok {
			return badRequest(c, "invalid_id", "customer id must be a positive integer")
		}
		filter.ID = id
	}
	if raw["is_deactivated"] != "" {
		deactivated, ok := validate.Bool(raw["is_deactivated"])
		if !ok {
			return badRequest(c, "invalid_boolean", "invalid value in is_deactivated, use 'true' or 'false'")
		}
		filter.Deactivated = &deactivated
	}

	customers, err := h.Customers.Search(filter, raw)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, fiber.StatusOK, customers)
}
