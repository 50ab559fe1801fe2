package portfolio

import (
	"context"
	"testing"
	"time"

	"folio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T, available string) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.UserFunds{}, &domain.Holding{}, &domain.TradeEvent{},
	))

	funds := &domain.UserFunds{
		Username:       "default",
		TotalFunds:     dec(available),
		AvailableFunds: dec(available),
		InvestedFunds:  decimal.Zero,
	}
	require.NoError(t, db.Create(funds).Error)

	return &Service{DB: db, Engine: NewEngine(decimal.Zero), UserID: funds.ID}, db
}

func TestServiceBuy_Persists(t *testing.T) {
	s, db := setupService(t, "1000")
	ctx := context.Background()

	holding, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	require.NotZero(t, holding.ID)

	var stored domain.Holding
	require.NoError(t, db.First(&stored, holding.ID).Error)
	assert.Equal(t, "AAPL", stored.StockName)
	assert.Equal(t, int64(10), stored.Quantity)
	assertDecimal(t, "100", stored.BuyPrice)

	funds, err := s.Funds(ctx)
	require.NoError(t, err)
	assertDecimal(t, "0", funds.AvailableFunds)
	assertDecimal(t, "1000", funds.InvestedFunds)
	assert.Equal(t, int64(1), funds.Version)

	var events []domain.TradeEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, domain.TradeEventBuy, events[0].EventType)
	assert.Equal(t, "AAPL", events[0].StockName)
	assert.NotEmpty(t, events[0].EventData)
}

func TestServiceBuy_InsufficientFundsNoMutation(t *testing.T) {
	s, db := setupService(t, "200")
	ctx := context.Background()

	_, err := s.Buy(ctx, "MSFT", 5, dec("50"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	var holdings int64
	require.NoError(t, db.Model(&domain.Holding{}).Count(&holdings).Error)
	assert.Zero(t, holdings)

	funds, err := s.Funds(ctx)
	require.NoError(t, err)
	assertDecimal(t, "200", funds.AvailableFunds)
	assert.Equal(t, int64(0), funds.Version)
}

func TestServiceBuy_NoFundsRecord(t *testing.T) {
	s, _ := setupService(t, "1000")
	s.UserID = 99

	_, err := s.Buy(context.Background(), "AAPL", 1, dec("10"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestServiceSell_FullWalkthrough(t *testing.T) {
	s, db := setupService(t, "1000")
	ctx := context.Background()

	bought, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)

	res, err := s.Sell(ctx, "AAPL", 4, dec("150"))
	require.NoError(t, err)
	assertDecimal(t, "200", res.Profit)
	assert.Equal(t, int64(6), res.RemainingQuantity)

	var lot domain.Holding
	require.NoError(t, db.First(&lot, bought.ID).Error)
	assert.Equal(t, int64(6), lot.Quantity)
	assertDecimal(t, "100", lot.BuyPrice)
	assert.True(t, lot.BuyTime.Equal(bought.BuyTime), "partial sell must not touch buy time")

	res, err = s.Sell(ctx, "AAPL", 6, dec("90"))
	require.NoError(t, err)
	assertDecimal(t, "-60", res.Profit)

	// Fully sold lot is deleted, not kept at zero quantity.
	err = db.First(&lot, bought.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	funds, err := s.Funds(ctx)
	require.NoError(t, err)
	assertDecimal(t, "1140", funds.AvailableFunds)
	assertDecimal(t, "0", funds.InvestedFunds)
	assertDecimal(t, "1140", funds.TotalFunds)

	var eventTypes []string
	require.NoError(t, db.Model(&domain.TradeEvent{}).Order("id ASC").Pluck("event_type", &eventTypes).Error)
	assert.Equal(t, []string{"BUY", "SELL", "SELL"}, eventTypes)
}

func TestServiceSell_FailureLeavesStoreUnchanged(t *testing.T) {
	s, db := setupService(t, "1000")
	ctx := context.Background()

	_, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)

	fundsBefore, err := s.Funds(ctx)
	require.NoError(t, err)
	var lotsBefore []domain.Holding
	require.NoError(t, db.Find(&lotsBefore).Error)

	_, err = s.Sell(ctx, "AAPL", 11, dec("150"))
	require.ErrorIs(t, err, ErrInsufficientQuantity)
	_, err = s.Sell(ctx, "TSLA", 1, dec("150"))
	require.ErrorIs(t, err, ErrPositionNotFound)

	fundsAfter, err := s.Funds(ctx)
	require.NoError(t, err)
	assert.True(t, fundsBefore.AvailableFunds.Equal(fundsAfter.AvailableFunds))
	assert.True(t, fundsBefore.InvestedFunds.Equal(fundsAfter.InvestedFunds))
	assert.True(t, fundsBefore.TotalFunds.Equal(fundsAfter.TotalFunds))
	assert.Equal(t, fundsBefore.Version, fundsAfter.Version)

	var lotsAfter []domain.Holding
	require.NoError(t, db.Find(&lotsAfter).Error)
	assert.Equal(t, lotsBefore, lotsAfter)
}

func TestServiceSell_FIFOConsumesOldestLot(t *testing.T) {
	s, db := setupService(t, "2000")
	ctx := context.Background()

	first, err := s.Buy(ctx, "NVDA", 5, dec("100"))
	require.NoError(t, err)
	// Force distinct buy times regardless of clock resolution.
	require.NoError(t, db.Model(&domain.Holding{}).Where("id = ?", first.ID).
		Update("buy_time", first.BuyTime.Add(-time.Hour)).Error)
	second, err := s.Buy(ctx, "NVDA", 5, dec("110"))
	require.NoError(t, err)

	res, err := s.Sell(ctx, "NVDA", 7, dec("120"))
	require.NoError(t, err)
	assertDecimal(t, "120", res.Profit)

	err = db.First(&domain.Holding{}, first.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "older lot consumed first")

	var remaining domain.Holding
	require.NoError(t, db.First(&remaining, second.ID).Error)
	assert.Equal(t, int64(3), remaining.Quantity)
	assertDecimal(t, "110", remaining.BuyPrice)
}

func TestServiceQuantityQueries(t *testing.T) {
	s, _ := setupService(t, "10000")
	ctx := context.Background()

	_, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	_, err = s.Buy(ctx, "AAPL", 5, dec("110"))
	require.NoError(t, err)
	_, err = s.Buy(ctx, "MSFT", 3, dec("200"))
	require.NoError(t, err)

	total, err := s.TotalQuantity(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)

	// Not held is zero, not an error.
	total, err = s.TotalQuantity(ctx, "TSLA")
	require.NoError(t, err)
	assert.Zero(t, total)

	// Idempotent with no intervening mutation.
	again, err := s.TotalQuantity(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(15), again)

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	for _, entry := range summary {
		individual, err := s.TotalQuantity(ctx, entry.StockName)
		require.NoError(t, err)
		assert.Equal(t, individual, entry.TotalQuantity)
	}
	assert.Equal(t, "AAPL", summary[0].StockName)
	assertDecimal(t, "1550", summary[0].InvestedCost)
	assert.Equal(t, "MSFT", summary[1].StockName)
	assert.Equal(t, int64(3), summary[1].TotalQuantity)
}

func TestServiceUpdateHolding_NoFundsSideEffect(t *testing.T) {
	s, _ := setupService(t, "1000")
	ctx := context.Background()

	holding, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	fundsBefore, err := s.Funds(ctx)
	require.NoError(t, err)

	qty := int64(8)
	name := "AAPL.A"
	updated, err := s.UpdateHolding(ctx, holding.ID, UpdateHoldingInput{StockName: &name, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "AAPL.A", updated.StockName)
	assert.Equal(t, int64(8), updated.Quantity)

	fundsAfter, err := s.Funds(ctx)
	require.NoError(t, err)
	assert.True(t, fundsBefore.AvailableFunds.Equal(fundsAfter.AvailableFunds))
	assert.True(t, fundsBefore.InvestedFunds.Equal(fundsAfter.InvestedFunds))
	assert.True(t, fundsBefore.TotalFunds.Equal(fundsAfter.TotalFunds))
}

func TestServiceUpdateHolding_Invalid(t *testing.T) {
	s, _ := setupService(t, "1000")
	ctx := context.Background()

	holding, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)

	zero := int64(0)
	_, err = s.UpdateHolding(ctx, holding.ID, UpdateHoldingInput{Quantity: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.UpdateHolding(ctx, holding.ID, UpdateHoldingInput{})
	assert.ErrorIs(t, err, ErrValidation)

	qty := int64(5)
	_, err = s.UpdateHolding(ctx, 999, UpdateHoldingInput{Quantity: &qty})
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestServiceDeleteByName(t *testing.T) {
	s, db := setupService(t, "10000")
	ctx := context.Background()

	_, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	_, err = s.Buy(ctx, "AAPL", 5, dec("110"))
	require.NoError(t, err)
	_, err = s.Buy(ctx, "MSFT", 3, dec("200"))
	require.NoError(t, err)

	fundsBefore, err := s.Funds(ctx)
	require.NoError(t, err)

	// Partial name match removes both AAPL lots and reconciles no funds.
	count, err := s.DeleteByName(ctx, "AAP")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var remaining []domain.Holding
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "MSFT", remaining[0].StockName)

	fundsAfter, err := s.Funds(ctx)
	require.NoError(t, err)
	assert.True(t, fundsBefore.InvestedFunds.Equal(fundsAfter.InvestedFunds))

	_, err = s.DeleteByName(ctx, "GOOG")
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestCommitFunds_StaleVersion(t *testing.T) {
	s, db := setupService(t, "1000")

	funds, err := s.loadFunds(db)
	require.NoError(t, err)

	// An admin overwrite lands between this read and the write below.
	require.NoError(t, db.Model(&domain.UserFunds{}).
		Where("id = ?", funds.ID).
		Update("version", funds.Version+1).Error)

	funds.AvailableFunds = dec("1")
	require.ErrorIs(t, s.commitFunds(db, funds, funds.Version), ErrConflict)

	var stored domain.UserFunds
	require.NoError(t, db.First(&stored, funds.ID).Error)
	assertDecimal(t, "1000", stored.AvailableFunds)
}

func TestServiceSell_ConcurrentLotWriteConflict(t *testing.T) {
	s, db := setupService(t, "1000")
	ctx := context.Background()

	holding, err := s.Buy(ctx, "AAPL", 10, dec("100"))
	require.NoError(t, err)

	// A second writer shrinks the lot after this sell has read it. The
	// quantity-guarded delete then matches zero rows and the whole sell
	// must roll back.
	intruded := false
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").
		Register("shrink_lot", func(d *gorm.DB) {
			if intruded {
				return
			}
			intruded = true
			d.Session(&gorm.Session{NewDB: true}).Model(&domain.Holding{}).
				Where("id = ?", holding.ID).Update("quantity", 4)
		}))

	_, err = s.Sell(ctx, "AAPL", 10, dec("150"))
	require.ErrorIs(t, err, ErrConflict)

	var lot domain.Holding
	require.NoError(t, db.First(&lot, holding.ID).Error)
	assert.Equal(t, int64(10), lot.Quantity)

	funds, err := s.Funds(ctx)
	require.NoError(t, err)
	assertDecimal(t, "0", funds.AvailableFunds)
	assertDecimal(t, "1000", funds.InvestedFunds)
	assert.Equal(t, int64(1), funds.Version)

	var sells int64
	require.NoError(t, db.Model(&domain.TradeEvent{}).
		Where("event_type = ?", domain.TradeEventSell).Count(&sells).Error)
	assert.Zero(t, sells)
}
