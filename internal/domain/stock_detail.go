package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockDetail is one OHLCV candle row for a ticker.
type StockDetail struct {
	RecordID   uint             `gorm:"column:record_id;primaryKey;autoIncrement" json:"record_id"`
	StocksName string           `gorm:"column:stocks_name;type:varchar(220);index:stocks_info_id" json:"stocks_name"`
	TimeStamp  time.Time        `gorm:"column:time_stamp;not null" json:"time_stamp"`
	Open       *decimal.Decimal `gorm:"column:open;type:decimal(10,2)" json:"open"`
	High       *decimal.Decimal `gorm:"column:high;type:decimal(10,2)" json:"high"`
	Low        *decimal.Decimal `gorm:"column:low;type:decimal(10,2)" json:"low"`
	Close      *decimal.Decimal `gorm:"column:close;type:decimal(10,2)" json:"close"`
	Quantity   int64            `gorm:"column:quantity" json:"quantity"`
}

func (StockDetail) TableName() string {
	return "stocks_detail"
}
