package quotes

import (
	"errors"
	"strconv"

	"folio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles quote passthrough handlers.
type Handlers struct {
	Provider Provider
}

// GetQuote GET /api/v1/quotes/:symbol
func (h *Handlers) GetQuote(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if symbol == "" {
		return response.BadRequest(c, "symbol is required")
	}

	quote, err := h.Provider.GetCurrentPrice(c.Context(), symbol)
	if err != nil {
		if errors.Is(err, ErrQuoteUnavailable) {
			return response.Error(c, "quote_unavailable", err.Error(), fiber.StatusBadGateway, nil)
		}
		return response.Error(c, "store_error", "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Quote fetched successfully", quote, nil)
}

// GetHistory GET /api/v1/quotes/:symbol/history?days=30
func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if symbol == "" {
		return response.BadRequest(c, "symbol is required")
	}
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days <= 0 {
		return response.BadRequest(c, "days must be a positive integer")
	}

	candles, err := h.Provider.GetHistory(c.Context(), symbol, days)
	if err != nil {
		if errors.Is(err, ErrQuoteUnavailable) {
			return response.Error(c, "quote_unavailable", err.Error(), fiber.StatusBadGateway, nil)
		}
		return response.Error(c, "store_error", "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "History fetched successfully", candles, fiber.Map{"count": len(candles)})
}

// Search GET /api/v1/quotes/search?q=keywords
func (h *Handlers) Search(c *fiber.Ctx) error {
	keywords := c.Query("q")
	if keywords == "" {
		return response.BadRequest(c, "q is required")
	}

	results, err := h.Provider.Search(c.Context(), keywords)
	if err != nil {
		if errors.Is(err, ErrQuoteUnavailable) {
			return response.Error(c, "quote_unavailable", err.Error(), fiber.StatusBadGateway, nil)
		}
		return response.Error(c, "store_error", "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Search completed", results, fiber.Map{"count": len(results)})
}
