package app

import (
	"time"

	"folio-backend/internal/config"
	"folio-backend/internal/database"
	"folio-backend/internal/health"
	"folio-backend/internal/middleware"
	"folio-backend/internal/portfolio"
	"folio-backend/internal/quotes"
	"folio-backend/internal/stockdetail"
	"folio-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. DB and Redis come back to the caller for startup pings.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	healthHandlers := &health.Handlers{Rdb: rdb, DB: db, StartedAt: time.Now()}
	app.Get("/health/json", healthHandlers.JSON)

	if db != nil {
		registerRoutes(app, cfg, db, rdb)
	}

	return app, db, rdb, nil
}

func registerRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, rdb *redis.Client) {
	var provider quotes.Provider
	if cfg.QuoteAPIURL != "" {
		provider = &quotes.HTTPProvider{BaseURL: cfg.QuoteAPIURL}
		if rdb != nil {
			provider = &quotes.CachedProvider{Next: provider, Rdb: rdb, TTL: cfg.QuoteCacheTTL}
		}
	}

	// Portfolio module (the accounting engine)
	portfolioService := &portfolio.Service{
		DB:     db,
		Engine: portfolio.NewEngine(cfg.FeeRate),
		UserID: cfg.PortfolioUserID,
	}
	portfolioHandlers := &portfolio.Handlers{Service: portfolioService, Quotes: provider}
	portfolioGroup := app.Group("/api/v1/portfolio")
	portfolioGroup.Post("/buy", portfolioHandlers.Buy)
	portfolioGroup.Put("/sell", portfolioHandlers.Sell)
	portfolioGroup.Get("/", portfolioHandlers.List)
	portfolioGroup.Get("/summary", portfolioHandlers.Summary)
	portfolioGroup.Get("/positions", portfolioHandlers.Positions)
	portfolioGroup.Get("/funds", portfolioHandlers.Funds)
	portfolioGroup.Get("/stock/:stockName", portfolioHandlers.StockQuantity)
	portfolioGroup.Put("/:id", portfolioHandlers.UpdateHolding)
	portfolioGroup.Delete("/:stockName", portfolioHandlers.DeleteByName)

	// Users module (funds records)
	userService := &user.Service{DB: db}
	userHandlers := &user.Handlers{Service: userService}
	userGroup := app.Group("/api/v1/users")
	userGroup.Post("/", userHandlers.Create)
	userGroup.Get("/", userHandlers.List)
	userGroup.Get("/:id", userHandlers.Get)
	userGroup.Put("/:id/funds", userHandlers.UpdateFunds)
	userGroup.Delete("/:id", userHandlers.Delete)

	// Stock details module (candle store)
	detailService := &stockdetail.Service{DB: db}
	detailHandlers := &stockdetail.Handlers{Service: detailService}
	detailGroup := app.Group("/api/v1/stock-details")
	detailGroup.Post("/", detailHandlers.Create)
	detailGroup.Get("/stock/:name/range", detailHandlers.ListByRange)
	detailGroup.Get("/stock/:name", detailHandlers.ListByName)
	detailGroup.Get("/:id", detailHandlers.Get)
	detailGroup.Put("/:id", detailHandlers.Update)
	detailGroup.Delete("/:id", detailHandlers.Delete)

	// Quotes module (external provider passthrough)
	if provider != nil {
		quoteHandlers := &quotes.Handlers{Provider: provider}
		quoteGroup := app.Group("/api/v1/quotes")
		quoteGroup.Get("/search", quoteHandlers.Search)
		quoteGroup.Get("/:symbol/history", quoteHandlers.GetHistory)
		quoteGroup.Get("/:symbol", quoteHandlers.GetQuote)
	}
}
