package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one open lot: a single acquisition of a ticker with its own
// quantity and cost basis. A lot whose quantity reaches zero is deleted,
// never kept as an empty row.
type Holding struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StockName string          `gorm:"column:stock_name;type:varchar(220);not null;index:stock_id" json:"stock_name"`
	Quantity  int64           `gorm:"column:quantity;not null;default:0" json:"quantity"`
	BuyPrice  decimal.Decimal `gorm:"column:buy_price;type:decimal(10,2);not null" json:"buy_price"`
	BuyTime   time.Time       `gorm:"column:buy_time;not null" json:"buy_time"`
}

func (Holding) TableName() string {
	return "user_portfolio_items"
}
