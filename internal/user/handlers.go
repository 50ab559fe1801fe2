package user

import (
	"errors"
	"strconv"

	"folio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers bundles user handlers.
type Handlers struct {
	Service *Service
}

func failUser(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUsernameUsed):
		return response.Error(c, "username_taken", err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, ErrUserNotFound):
		return response.NotFound(c, "user_not_found", err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("user store error")
		return response.Error(c, "store_error", "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

// Create POST /api/v1/users
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body struct {
		Username string          `json:"username"`
		Funds    decimal.Decimal `json:"funds"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "username is required")
	}

	record, err := h.Service.Create(c.Context(), body.Username, body.Funds)
	if err != nil {
		return failUser(c, err)
	}
	return response.SuccessCreated(c, "User created successfully", record, nil)
}

// List GET /api/v1/users
func (h *Handlers) List(c *fiber.Ctx) error {
	records, err := h.Service.List(c.Context())
	if err != nil {
		return failUser(c, err)
	}
	return response.Success(c, "Users fetched successfully", records, fiber.Map{"count": len(records)})
}

// Get GET /api/v1/users/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	record, err := h.Service.Get(c.Context(), uint(id))
	if err != nil {
		return failUser(c, err)
	}
	return response.Success(c, "User fetched successfully", record, nil)
}

// UpdateFunds PUT /api/v1/users/:id/funds
func (h *Handlers) UpdateFunds(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	var body struct {
		TotalFunds     *decimal.Decimal `json:"total_funds"`
		AvailableFunds *decimal.Decimal `json:"available_funds"`
		InvestedFunds  *decimal.Decimal `json:"invested_funds"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	record, err := h.Service.UpdateFunds(c.Context(), uint(id), UpdateFundsInput{
		TotalFunds:     body.TotalFunds,
		AvailableFunds: body.AvailableFunds,
		InvestedFunds:  body.InvestedFunds,
	})
	if err != nil {
		return failUser(c, err)
	}
	return response.Success(c, "Funds updated successfully", record, nil)
}

// Delete DELETE /api/v1/users/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	if err := h.Service.Delete(c.Context(), uint(id)); err != nil {
		return failUser(c, err)
	}
	return response.Success(c, "User deleted successfully", fiber.Map{"id": id}, nil)
}
