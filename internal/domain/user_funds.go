package domain

import (
	"github.com/shopspring/decimal"
)

// UserFunds is the cash ledger of one user. AvailableFunds is cash not
// committed to holdings, InvestedFunds the cost-basis capital locked in
// open lots, TotalFunds their owner-facing sum.
//
// Version backs the optimistic write guard: funds updates are committed
// with UPDATE ... WHERE version = ? so two concurrent trades against the
// same record cannot both win.
type UserFunds struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username       string          `gorm:"column:username;type:varchar(50);not null;uniqueIndex" json:"username"`
	TotalFunds     decimal.Decimal `gorm:"column:total_funds;type:decimal(12,2);not null;default:0" json:"total_funds"`
	AvailableFunds decimal.Decimal `gorm:"column:available_funds;type:decimal(12,2);not null;default:0" json:"available_funds"`
	InvestedFunds  decimal.Decimal `gorm:"column:invested_funds;type:decimal(12,2);not null;default:0" json:"invested_funds"`
	Version        int64           `gorm:"column:version;not null;default:0" json:"-"`
}

func (UserFunds) TableName() string {
	return "user_info"
}
