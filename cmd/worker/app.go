package main

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"invtrack/internal/config"
	"invtrack/internal/database"
	"invtrack/internal/logger"
	"invtrack/internal/pricesource"
	"invtrack/internal/pricesync"
	"invtrack/internal/repository"
	"invtrack/internal/services"
	"invtrack/internal/syncstatus"
)

// app is the wired set of components shared by the subcommands.
type app struct {
	cfg       *config.Config
	db        *database.Manager
	redis     *redis.Client
	repo      repository.InventoryRepository
	source    *pricesource.SteamMarket
	status    syncstatus.Store
	syncer    *pricesync.Syncer
	inventory services.InventoryServicer
	owners    services.OwnerServicer
}

// newApp loads configuration, opens and migrates the store and wires the
// sync components. Callers must Close the result.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	a := &app{cfg: cfg, db: dbManager}
	a.repo = repository.NewInventoryRepository(dbManager.DB(), cfg.StoreTimeout)
	a.source = pricesource.NewSteamMarket(
		&http.Client{Timeout: cfg.RequestTimeout},
		pricesource.SteamOptions{
			BaseURL:       cfg.PriceSourceBaseURL,
			AppID:         cfg.PriceSourceAppID,
			Currency:      cfg.PriceSourceCurrency,
			PriceJSONPath: cfg.PriceJSONPath,
		},
		logger.Named("pricesource"),
	)

	switch cfg.StatusBackend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.status = syncstatus.NewRedisStore(a.redis, cfg.StatusRedisKey, cfg.StatusLocation())
	default:
		a.status = syncstatus.NewFileStore(cfg.StatusFile, cfg.StatusLocation())
	}

	a.syncer = pricesync.NewSyncer(a.repo, a.source, a.status, pricesync.Options{
		Cooldown:     cfg.SyncCooldown,
		Location:     cfg.StatusLocation(),
		CurrencyCode: a.source.CurrencyCode(),
	}, logger.Named("pricesync"))

	a.inventory = services.NewInventoryService(a.repo, a.source, logger.Named("inventory"))
	a.owners = services.NewOwnerService(dbManager.DB())
	return a, nil
}

// Close releases the store connections.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Get().Warnw("redis close error", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		logger.Get().Warnw("database close error", "error", err)
	}
}
