package database

import (
	"folio-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when running behind a connection
// pooler (PgBouncer, Supabase, Render).
func Open(dsn string) (*gorm.DB, error) {
	// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey
	// so services can turn them into their own conflict errors.
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// AutoMigrate runs migrations for all ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.UserFunds{},
		&domain.Holding{},
		&domain.StockDetail{},
		&domain.TradeEvent{},
	)
}
