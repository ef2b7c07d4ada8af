package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yair/gigscout/pkg/collectors"
	"github.com/yair/gigscout/pkg/config"
	"github.com/yair/gigscout/pkg/domain"
	"github.com/yair/gigscout/pkg/integrations"
	"github.com/yair/gigscout/pkg/integrations/sources/events"
	"github.com/yair/gigscout/pkg/integrations/sources/scrapers"
	"github.com/yair/gigscout/pkg/metrics"
)

// openStore opens the shared persistent cache selected by database.driver.
func openStore(ctx context.Context, dc config.DatabaseConfig) (domain.CacheStore, error) {
	switch dc.Driver {
	case "postgres":
		pool, err := collectors.ConnectPostgres(ctx, dc.GetDSN())
		if err != nil {
			return nil, err
		}
		store, err := collectors.NewPostgresCacheRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		db, err := collectors.NewSQLiteDB(dc.Path)
		if err != nil {
			return nil, err
		}
		store, err := collectors.NewCacheRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	}
}

// buildAggregator wires every provider that has credentials. Providers
// without credentials are skipped with a warning.
func buildAggregator(cfg *config.Config, store domain.CacheStore, m *metrics.Metrics, logger *slog.Logger) *integrations.ConcertAggregator {
	opts := []integrations.Option{
		integrations.WithLogger(logger),
		integrations.WithMetrics(m),
		integrations.WithStore(store),
		integrations.WithPageExtractor(scrapers.NewPageExtractor(scrapers.ScrapingConfig{
			UserAgent: cfg.Scrapers.UserAgent,
			Timeout:   time.Duration(cfg.Scrapers.Timeout) * time.Second,
			Logger:    logger,
		})),
	}

	if !cfg.HasEventProvider() {
		logger.Warn("no event provider configured")
	}

	var sources []integrations.EventSource

	tm, err := events.NewTicketmasterClient(events.TicketmasterConfig{
		APIKey:     cfg.APIs.Ticketmaster.APIKey,
		BaseURL:    cfg.APIs.Ticketmaster.BaseURL,
		DailyQuota: cfg.APIs.Ticketmaster.DailyQuota,
	})
	if err != nil {
		logger.Warn("provider disabled", "provider", events.TicketmasterName, "error", err)
	} else {
		sources = append(sources, tm)
		opts = append(opts, integrations.WithArtistDirectory(tm))
	}

	rapid, err := events.NewRapidAPIClient(events.RapidAPIConfig{
		APIKey:  cfg.APIs.RapidAPI.Key,
		Host:    cfg.APIs.RapidAPI.Host,
		BaseURL: cfg.APIs.RapidAPI.BaseURL,
	})
	if err != nil {
		logger.Warn("provider disabled", "provider", events.RapidAPIName, "error", err)
	} else {
		sources = append(sources, rapid)
	}

	bit, err := events.NewBandsintownClient(events.BandsintownConfig{
		AppID:   cfg.APIs.Bandsintown.AppID,
		BaseURL: cfg.APIs.Bandsintown.BaseURL,
	})
	if err != nil {
		logger.Warn("provider disabled", "provider", events.BandsintownName, "error", err)
	} else {
		sources = append(sources, bit)
	}

	aggregator := integrations.NewConcertAggregator(integrations.AggregatorConfig{
		MaxConcurrentRequests: cfg.Search.MaxConcurrentRequests,
		RequestTimeout:        cfg.RequestTimeout(),
		StoreTimeout:          cfg.StoreTimeout(),
		CacheTTL:              cfg.CacheTTL(),
		DefaultLimit:          cfg.Search.DefaultLimit,
		AllowedCountries:      cfg.Search.AllowedCountries,
	}, opts...)
	for _, source := range sources {
		aggregator.RegisterEventSource(source)
	}

	return aggregator
}

type runtime struct {
	aggregator *integrations.ConcertAggregator
	store      domain.CacheStore
	metrics    *metrics.Metrics
}

func newRuntime(ctx context.Context) (*runtime, error) {
	storeCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout()*2)
	defer cancel()

	store, err := openStore(storeCtx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	m := metrics.New()
	return &runtime{
		aggregator: buildAggregator(cfg, store, m, logger),
		store:      store,
		metrics:    m,
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		logger.Warn("failed to close cache store", "error", err)
	}
}
