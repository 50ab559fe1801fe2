package stockdetail

import (
	"errors"
	"strconv"
	"time"

	"folio-backend/internal/domain"
	"folio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers bundles stock detail handlers.
type Handlers struct {
	Service *Service
}

func failDetail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, ErrRecordNotFound):
		return response.NotFound(c, "record_not_found", err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("stock detail store error")
		return response.Error(c, "store_error", "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

type detailRequest struct {
	StocksName string           `json:"stocks_name"`
	TimeStamp  time.Time        `json:"time_stamp"`
	Open       *decimal.Decimal `json:"open"`
	High       *decimal.Decimal `json:"high"`
	Low        *decimal.Decimal `json:"low"`
	Close      *decimal.Decimal `json:"close"`
	Quantity   int64            `json:"quantity"`
}

// Create POST /api/v1/stock-details
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body detailRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "stocks_name and time_stamp are required")
	}

	detail := &domain.StockDetail{
		StocksName: body.StocksName,
		TimeStamp:  body.TimeStamp,
		Open:       body.Open,
		High:       body.High,
		Low:        body.Low,
		Close:      body.Close,
		Quantity:   body.Quantity,
	}
	if err := h.Service.Create(c.Context(), detail); err != nil {
		return failDetail(c, err)
	}
	return response.SuccessCreated(c, "Stock detail created successfully", detail, nil)
}

// Get GET /api/v1/stock-details/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	detail, err := h.Service.Get(c.Context(), uint(id))
	if err != nil {
		return failDetail(c, err)
	}
	return response.Success(c, "Stock detail fetched successfully", detail, nil)
}

// ListByName GET /api/v1/stock-details/stock/:name?page=1&limit=20
func (h *Handlers) ListByName(c *fiber.Ctx) error {
	name := c.Params("name")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	result, err := h.Service.ListByName(c.Context(), name, page, limit)
	if err != nil {
		return failDetail(c, err)
	}
	return response.Success(c, "Stock details fetched successfully", result.Rows, fiber.Map{
		"count": result.Count,
		"page":  result.Page,
		"limit": result.Limit,
	})
}

// ListByRange GET /api/v1/stock-details/stock/:name/range?start=&end= (RFC 3339)
func (h *Handlers) ListByRange(c *fiber.Ctx) error {
	name := c.Params("name")
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return response.BadRequest(c, "start must be an RFC 3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return response.BadRequest(c, "end must be an RFC 3339 timestamp")
	}

	rows, err := h.Service.ListByRange(c.Context(), name, start, end)
	if err != nil {
		return failDetail(c, err)
	}
	return response.Success(c, "Stock details fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// Update PUT /api/v1/stock-details/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	var body struct {
		Open     *decimal.Decimal `json:"open"`
		High     *decimal.Decimal `json:"high"`
		Low      *decimal.Decimal `json:"low"`
		Close    *decimal.Decimal `json:"close"`
		Quantity *int64           `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	updates := map[string]interface{}{}
	if body.Open != nil {
		updates["open"] = *body.Open
	}
	if body.High != nil {
		updates["high"] = *body.High
	}
	if body.Low != nil {
		updates["low"] = *body.Low
	}
	if body.Close != nil {
		updates["close"] = *body.Close
	}
	if body.Quantity != nil {
		updates["quantity"] = *body.Quantity
	}

	detail, err := h.Service.Update(c.Context(), uint(id), updates)
	if err != nil {
		return failDetail(c, err)
	}
	return response.Success(c, "Stock detail updated successfully", detail, nil)
}

// Delete DELETE /api/v1/stock-details/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	if err := h.Service.Delete(c.Context(), uint(id)); err != nil {
		return failDetail(c, err)
	}
	return response.Success(c, "Stock detail deleted successfully", fiber.Map{"record_id": id}, nil)
}
