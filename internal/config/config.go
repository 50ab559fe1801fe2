package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	RedisURL      string
	QuoteAPIURL   string
	QuoteCacheTTL time.Duration

	// FeeRate is the proportional trading fee on notional (e.g. 0.001 for
	// 0.1%). Deducted from available funds only, never folded into a lot's
	// cost basis. Default 0.
	FeeRate decimal.Decimal

	// PortfolioUserID is the funds record the accounting engine trades
	// against (single implicit user).
	PortfolioUserID uint

	FrontendURLEndsWith string
	DevPassword         string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	feeRate := decimal.Zero
	if s := viper.GetString("FEE_RATE"); s != "" {
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		feeRate = parsed
	}

	cacheTTL := viper.GetDuration("QUOTE_CACHE_TTL")
	if cacheTTL == 0 {
		cacheTTL = 60 * time.Second
	}

	userID := viper.GetUint("PORTFOLIO_USER_ID")
	if userID == 0 {
		userID = 1
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		QuoteAPIURL:         viper.GetString("QUOTE_API_URL"),
		QuoteCacheTTL:       cacheTTL,
		FeeRate:             feeRate,
		PortfolioUserID:     userID,
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
	}, nil
}
