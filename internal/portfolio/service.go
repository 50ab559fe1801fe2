package portfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"folio-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service runs engine operations against the store. Each Buy/Sell is a
// single transaction: read funds and lots, let the engine compute, persist
// lot changes and the funds record, append a trade event. The funds write
// is a compare-and-swap on the version column and lot writes are guarded
// by the quantity that was read, so a concurrent trade on the same record
// rolls the whole operation back with ErrConflict rather than losing an
// update.
type Service struct {
	DB     *gorm.DB
	Engine *Engine
	UserID uint
}

// PositionSummary is one aggregated position: all lots of a ticker.
type PositionSummary struct {
	StockName     string          `json:"stock_name"`
	TotalQuantity int64           `json:"total_quantity"`
	InvestedCost  decimal.Decimal `json:"invested_cost"`
}

// UpdateHoldingInput carries the admin overwrite fields; nil means keep.
type UpdateHoldingInput struct {
	StockName *string
	Quantity  *int64
	BuyPrice  *decimal.Decimal
}

func (s *Service) loadFunds(tx *gorm.DB) (*domain.UserFunds, error) {
	var funds domain.UserFunds
	if err := tx.First(&funds, s.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &funds, nil
}

func (s *Service) commitFunds(tx *gorm.DB, funds *domain.UserFunds, readVersion int64) error {
	res := tx.Model(&domain.UserFunds{}).
		Where("id = ? AND version = ?", funds.ID, readVersion).
		Updates(map[string]interface{}{
			"total_funds":     funds.TotalFunds,
			"available_funds": funds.AvailableFunds,
			"invested_funds":  funds.InvestedFunds,
			"version":         readVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Buy executes a purchase for the implicit user and returns the created lot.
func (s *Service) Buy(ctx context.Context, stockName string, quantity int64, buyPrice decimal.Decimal) (*domain.Holding, error) {
	var created *domain.Holding

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funds, err := s.loadFunds(tx)
		if err != nil {
			return err
		}
		readVersion := funds.Version

		holding, err := s.Engine.Buy(funds, stockName, quantity, buyPrice, time.Now())
		if err != nil {
			return err
		}

		if err := tx.Create(holding).Error; err != nil {
			return err
		}
		if err := s.commitFunds(tx, funds, readVersion); err != nil {
			return err
		}

		eventDataBytes, _ := json.Marshal(map[string]interface{}{
			"holding_id":      holding.ID,
			"quantity":        holding.Quantity,
			"buy_price":       holding.BuyPrice,
			"available_funds": funds.AvailableFunds,
			"invested_funds":  funds.InvestedFunds,
		})
		if err := tx.Create(&domain.TradeEvent{
			EventType: domain.TradeEventBuy,
			StockName: stockName,
			EventData: datatypes.JSON(eventDataBytes),
		}).Error; err != nil {
			return err
		}

		created = holding
		return nil
	})

	return created, err
}

// Sell executes a sale for the implicit user, consuming lots FIFO.
func (s *Service) Sell(ctx context.Context, stockName string, quantity int64, sellPrice decimal.Decimal) (*SellResult, error) {
	var result *SellResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		funds, err := s.loadFunds(tx)
		if err != nil {
			return err
		}
		readVersion := funds.Version

		var lots []domain.Holding
		if err := tx.Where("stock_name = ?", stockName).Find(&lots).Error; err != nil {
			return err
		}

		res, err := s.Engine.Sell(funds, lots, stockName, quantity, sellPrice)
		if err != nil {
			return err
		}

		for _, change := range res.Changes {
			var op *gorm.DB
			if change.NewQuantity == 0 {
				op = tx.Where("id = ? AND quantity = ?", change.ID, change.PriorQuantity).
					Delete(&domain.Holding{})
			} else {
				op = tx.Model(&domain.Holding{}).
					Where("id = ? AND quantity = ?", change.ID, change.PriorQuantity).
					Update("quantity", change.NewQuantity)
			}
			if op.Error != nil {
				return op.Error
			}
			if op.RowsAffected == 0 {
				return ErrConflict
			}
		}
		if err := s.commitFunds(tx, funds, readVersion); err != nil {
			return err
		}

		eventDataBytes, _ := json.Marshal(map[string]interface{}{
			"quantity":        res.Quantity,
			"sell_price":      res.SellPrice,
			"proceeds":        res.Proceeds,
			"fee":             res.Fee,
			"profit":          res.Profit,
			"available_funds": funds.AvailableFunds,
			"invested_funds":  funds.InvestedFunds,
		})
		if err := tx.Create(&domain.TradeEvent{
			EventType: domain.TradeEventSell,
			StockName: stockName,
			EventData: datatypes.JSON(eventDataBytes),
		}).Error; err != nil {
			return err
		}

		result = res
		return nil
	})

	return result, err
}

// ListHoldings returns every open lot, most recent buy first.
func (s *Service) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	var holdings []domain.Holding
	err := s.DB.WithContext(ctx).Order("buy_time DESC").Find(&holdings).Error
	return holdings, err
}

// TotalQuantity sums held quantity across all lots of stockName.
// Zero with no error is a valid answer for a ticker not held.
func (s *Service) TotalQuantity(ctx context.Context, stockName string) (int64, error) {
	var total sql.NullInt64
	err := s.DB.WithContext(ctx).Model(&domain.Holding{}).
		Where("stock_name = ?", stockName).
		Select("SUM(quantity)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// Summary groups open lots by ticker with total quantity and cost.
func (s *Service) Summary(ctx context.Context) ([]PositionSummary, error) {
	var summary []PositionSummary
	err := s.DB.WithContext(ctx).Model(&domain.Holding{}).
		Select("stock_name, SUM(quantity) AS total_quantity, SUM(quantity * buy_price) AS invested_cost").
		Group("stock_name").
		Order("stock_name ASC").
		Scan(&summary).Error
	return summary, err
}

// Funds returns the implicit user's funds record.
func (s *Service) Funds(ctx context.Context) (*domain.UserFunds, error) {
	var funds domain.UserFunds
	err := s.DB.WithContext(ctx).First(&funds, s.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &funds, nil
}

// UpdateHolding overwrites lot fields with no funds side effect. This is a
// data-repair path, not a trade: it must never be used to simulate a buy
// or sell, because it deliberately bypasses funds reconciliation.
func (s *Service) UpdateHolding(ctx context.Context, id uint, input UpdateHoldingInput) (*domain.Holding, error) {
	updates := map[string]interface{}{}
	if input.StockName != nil {
		if *input.StockName == "" {
			return nil, ErrValidation
		}
		updates["stock_name"] = *input.StockName
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, ErrValidation
		}
		updates["quantity"] = *input.Quantity
	}
	if input.BuyPrice != nil {
		if input.BuyPrice.IsNegative() {
			return nil, ErrValidation
		}
		updates["buy_price"] = *input.BuyPrice
	}
	if len(updates) == 0 {
		return nil, ErrValidation
	}

	var holding domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&holding, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHoldingNotFound
			}
			return err
		}
		if err := tx.Model(&holding).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&holding, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

// DeleteByName removes every lot whose name contains the given fragment,
// again with no funds reconciliation. Returns the number of rows removed;
// zero matches is reported as ErrPositionNotFound.
func (s *Service) DeleteByName(ctx context.Context, stockName string) (int64, error) {
	if stockName == "" {
		return 0, ErrValidation
	}
	res := s.DB.WithContext(ctx).
		Where("stock_name LIKE ?", "%"+stockName+"%").
		Delete(&domain.Holding{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrPositionNotFound
	}
	return res.RowsAffected, nil
}
