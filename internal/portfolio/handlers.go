package portfolio

import (
	"errors"
	"strconv"

	"folio-backend/internal/pkg/response"
	"folio-backend/internal/quotes"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers bundles portfolio handlers. Quotes is optional; when nil the
// positions endpoint serves ledger data without enrichment.
type Handlers struct {
	Service *Service
	Quotes  quotes.Provider
}

// errStatus maps an engine error to HTTP status and stable error kind.
func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, ErrInsufficientQuantity):
		return fiber.StatusBadRequest, "insufficient_quantity"
	case errors.Is(err, ErrPositionNotFound):
		return fiber.StatusNotFound, "position_not_found"
	case errors.Is(err, ErrHoldingNotFound):
		return fiber.StatusNotFound, "holding_not_found"
	case errors.Is(err, ErrUserNotFound):
		return fiber.StatusNotFound, "user_not_found"
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict, "conflict"
	default:
		return fiber.StatusInternalServerError, "store_error"
	}
}

func fail(c *fiber.Ctx, err error) error {
	status, kind := errStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("portfolio store error")
		msg = "Internal Server Error"
	}
	return response.Error(c, kind, msg, status, nil)
}

type orderRequest struct {
	StockName string          `json:"stock_name"`
	Quantity  int64           `json:"quantity"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
}

// Buy POST /api/v1/portfolio/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	var body orderRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "stock_name, quantity and buy_price are required")
	}

	holding, err := h.Service.Buy(c.Context(), body.StockName, body.Quantity, body.BuyPrice)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Stock purchased successfully", holding, nil)
}

// Sell PUT /api/v1/portfolio/sell
func (h *Handlers) Sell(c *fiber.Ctx) error {
	var body orderRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "stock_name, quantity and sell_price are required")
	}

	result, err := h.Service.Sell(c.Context(), body.StockName, body.Quantity, body.SellPrice)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Stock sold successfully", result, nil)
}

// List GET /api/v1/portfolio
func (h *Handlers) List(c *fiber.Ctx) error {
	holdings, err := h.Service.ListHoldings(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio fetched successfully", holdings, fiber.Map{"count": len(holdings)})
}

// StockQuantity GET /api/v1/portfolio/stock/:stockName
func (h *Handlers) StockQuantity(c *fiber.Ctx) error {
	stockName := c.Params("stockName")
	if stockName == "" {
		return response.BadRequest(c, "stockName is required")
	}

	total, err := h.Service.TotalQuantity(c.Context(), stockName)
	if err != nil {
		return fail(c, err)
	}
	// Zero is a valid result for a ticker not held, not an error.
	return response.Success(c, "Total quantity fetched successfully", fiber.Map{
		"stock_name":     stockName,
		"total_quantity": total,
	}, nil)
}

// Summary GET /api/v1/portfolio/summary
func (h *Handlers) Summary(c *fiber.Ctx) error {
	summary, err := h.Service.Summary(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio summary fetched successfully", summary, fiber.Map{"count": len(summary)})
}

type positionView struct {
	StockName     string   `json:"stock_name"`
	TotalQuantity int64    `json:"total_quantity"`
	InvestedCost  string   `json:"invested_cost"`
	AvgCost       string   `json:"avg_cost"`
	LastPrice     *float64 `json:"last_price"`
	MarketValue   *float64 `json:"market_value"`
	Unrealized    *float64 `json:"unrealized"`
}

// Positions GET /api/v1/portfolio/positions
//
// Summary plus best-effort quote enrichment. A failed quote leaves the
// enriched fields null; it never fails the request.
func (h *Handlers) Positions(c *fiber.Ctx) error {
	summary, err := h.Service.Summary(c.Context())
	if err != nil {
		return fail(c, err)
	}

	positions := make([]positionView, 0, len(summary))
	for _, s := range summary {
		avgCost := decimal.Zero
		if s.TotalQuantity > 0 {
			avgCost = s.InvestedCost.Div(decimal.NewFromInt(s.TotalQuantity)).Round(2)
		}
		view := positionView{
			StockName:     s.StockName,
			TotalQuantity: s.TotalQuantity,
			InvestedCost:  s.InvestedCost.StringFixed(2),
			AvgCost:       avgCost.StringFixed(2),
		}
		if h.Quotes != nil {
			if quote, qerr := h.Quotes.GetCurrentPrice(c.Context(), s.StockName); qerr == nil {
				marketValue := quote.Price * float64(s.TotalQuantity)
				unrealized := marketValue - s.InvestedCost.InexactFloat64()
				view.LastPrice = &quote.Price
				view.MarketValue = &marketValue
				view.Unrealized = &unrealized
			} else {
				log.Warn().Err(qerr).Str("stock", s.StockName).Msg("quote enrichment skipped")
			}
		}
		positions = append(positions, view)
	}

	return response.Success(c, "Positions fetched successfully", positions, fiber.Map{"count": len(positions)})
}

// Funds GET /api/v1/portfolio/funds
func (h *Handlers) Funds(c *fiber.Ctx) error {
	funds, err := h.Service.Funds(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Funds fetched successfully", funds, nil)
}

type updateHoldingRequest struct {
	StockName *string          `json:"stock_name"`
	Quantity  *int64           `json:"quantity"`
	BuyPrice  *decimal.Decimal `json:"buy_price"`
}

// UpdateHolding PUT /api/v1/portfolio/:id
//
// Administrative field overwrite with no funds side effect. Not a trade.
func (h *Handlers) UpdateHolding(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "id must be a positive integer")
	}
	var body updateHoldingRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	holding, err := h.Service.UpdateHolding(c.Context(), uint(id), UpdateHoldingInput{
		StockName: body.StockName,
		Quantity:  body.Quantity,
		BuyPrice:  body.BuyPrice,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Holding updated successfully", holding, nil)
}

// DeleteByName DELETE /api/v1/portfolio/:stockName
//
// Administrative bulk delete, partial name match, no funds reconciliation.
func (h *Handlers) DeleteByName(c *fiber.Ctx) error {
	stockName := c.Params("stockName")
	if stockName == "" {
		return response.BadRequest(c, "stockName is required")
	}

	count, err := h.Service.DeleteByName(c.Context(), stockName)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Holdings deleted successfully", fiber.Map{"deleted": count}, nil)
}
