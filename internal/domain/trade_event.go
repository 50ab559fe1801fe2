package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Trade event types.
const (
	TradeEventBuy  = "BUY"
	TradeEventSell = "SELL"
)

// TradeEvent is an append-only audit row written in the same transaction
// as the trade it records. EventData carries the operation payload
// (quantities, prices, resulting funds) as JSON.
type TradeEvent struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EventType string         `gorm:"column:event_type;type:varchar(10);not null" json:"event_type"`
	StockName string         `gorm:"column:stock_name;type:varchar(220);not null;index" json:"stock_name"`
	EventData datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (TradeEvent) TableName() string {
	return "trade_events"
}
