package portfolio

import (
	"fmt"
	"sort"
	"time"

	"folio-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Engine is the pure accounting core. It owns no storage: callers load the
// funds record and the relevant lots, the engine validates the operation
// and computes the resulting mutations, and callers persist them. All
// money math is decimal, rounded to cents only where cash moves.
//
// The fee rate is a proportional charge on notional. It is a pure cash
// leak: it reduces available and total funds but is never recorded in a
// lot's buy price or in invested funds.
type Engine struct {
	feeRate decimal.Decimal
}

// NewEngine returns an engine with the given proportional fee rate
// (e.g. 0.001 for 0.1%). A zero rate disables fees.
func NewEngine(feeRate decimal.Decimal) *Engine {
	return &Engine{feeRate: feeRate}
}

// LotChange records what must happen to one existing lot after a sell.
// NewQuantity zero means the row is deleted. PriorQuantity is the quantity
// the caller read; persistence guards its writes with it so a concurrently
// modified lot fails the commit instead of losing the update.
type LotChange struct {
	ID            uint
	PriorQuantity int64
	NewQuantity   int64
}

// SellResult is the outcome of a committed sell.
type SellResult struct {
	StockName         string          `json:"stock_name"`
	Quantity          int64           `json:"quantity"`
	AvgBuyPrice       decimal.Decimal `json:"avg_buy_price"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	Proceeds          decimal.Decimal `json:"proceeds"`
	Fee               decimal.Decimal `json:"fee"`
	Profit            decimal.Decimal `json:"profit"`
	RemainingQuantity int64           `json:"remaining_quantity"`

	Changes []LotChange `json:"-"`
}

func (e *Engine) fee(notional decimal.Decimal) decimal.Decimal {
	if e.feeRate.IsZero() {
		return decimal.Zero
	}
	return notional.Mul(e.feeRate).Round(2)
}

func validateOrder(stockName string, quantity int64, price decimal.Decimal) error {
	if stockName == "" {
		return fmt.Errorf("%w: stock name is required", ErrValidation)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return nil
}

// Buy validates a purchase against the funds record and, on success,
// mutates funds in place and returns the new lot to create. Each buy is
// its own lot; same-ticker lots are never merged, so every acquisition
// keeps its own cost basis.
func (e *Engine) Buy(funds *domain.UserFunds, stockName string, quantity int64, buyPrice decimal.Decimal, now time.Time) (*domain.Holding, error) {
	if err := validateOrder(stockName, quantity, buyPrice); err != nil {
		return nil, err
	}

	cost := buyPrice.Mul(decimal.NewFromInt(quantity))
	fee := e.fee(cost)
	debit := cost.Add(fee)

	if funds.AvailableFunds.LessThan(debit) {
		return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, debit, funds.AvailableFunds)
	}

	// Cash moves into the position at cost; the fee leaves the book.
	funds.AvailableFunds = funds.AvailableFunds.Sub(debit)
	funds.InvestedFunds = funds.InvestedFunds.Add(cost)
	funds.TotalFunds = funds.TotalFunds.Sub(fee)

	return &domain.Holding{
		StockName: stockName,
		Quantity:  quantity,
		BuyPrice:  buyPrice,
		BuyTime:   now,
	}, nil
}

// Sell validates a sale against the open lots of stockName and, on
// success, mutates funds in place and returns the realized result plus the
// lot changes to persist. Lots are consumed FIFO by buy time: the source's
// pick-any-row behavior was ambiguous once repeated buys create several
// lots of the same ticker, so oldest-first is the fixed policy here.
func (e *Engine) Sell(funds *domain.UserFunds, lots []domain.Holding, stockName string, quantity int64, sellPrice decimal.Decimal) (*SellResult, error) {
	if err := validateOrder(stockName, quantity, sellPrice); err != nil {
		return nil, err
	}

	if len(lots) == 0 {
		return nil, fmt.Errorf("%w: no open lots for %s", ErrPositionNotFound, stockName)
	}

	sorted := make([]domain.Holding, len(lots))
	copy(sorted, lots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].BuyTime.Equal(sorted[j].BuyTime) {
			return sorted[i].BuyTime.Before(sorted[j].BuyTime)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var held int64
	for _, lot := range sorted {
		held += lot.Quantity
	}
	if quantity > held {
		return nil, fmt.Errorf("%w: selling %d, holding %d", ErrInsufficientQuantity, quantity, held)
	}

	var (
		changes   []LotChange
		costBasis decimal.Decimal
		toSell    = quantity
	)
	for _, lot := range sorted {
		if toSell == 0 {
			break
		}
		consumed := lot.Quantity
		if consumed > toSell {
			consumed = toSell
		}
		costBasis = costBasis.Add(lot.BuyPrice.Mul(decimal.NewFromInt(consumed)))
		changes = append(changes, LotChange{
			ID:            lot.ID,
			PriorQuantity: lot.Quantity,
			NewQuantity:   lot.Quantity - consumed,
		})
		toSell -= consumed
	}

	qty := decimal.NewFromInt(quantity)
	proceeds := sellPrice.Mul(qty)
	fee := e.fee(proceeds)
	profit := proceeds.Sub(costBasis)

	funds.AvailableFunds = funds.AvailableFunds.Add(proceeds).Sub(fee)
	funds.InvestedFunds = funds.InvestedFunds.Sub(costBasis)
	funds.TotalFunds = funds.TotalFunds.Add(profit).Sub(fee)

	return &SellResult{
		StockName:         stockName,
		Quantity:          quantity,
		AvgBuyPrice:       costBasis.Div(qty).Round(2),
		SellPrice:         sellPrice,
		Proceeds:          proceeds,
		Fee:               fee,
		Profit:            profit,
		RemainingQuantity: held - quantity,
		Changes:           changes,
	}, nil
}
