package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-route-engine/internal/adapters/cache"
	"freight-route-engine/internal/adapters/distance"
	"freight-route-engine/internal/adapters/events"
	"freight-route-engine/internal/adapters/repositories"
	"freight-route-engine/internal/api"
	"freight-route-engine/internal/config"
	"freight-route-engine/internal/platform/db"
	"freight-route-engine/internal/platform/logger"
	"freight-route-engine/internal/platform/metrics"
	"freight-route-engine/internal/ports"
	"freight-route-engine/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (SQL or memory store, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, conn, dialect, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}
	cities, err := cityRepository(store)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, count cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			cached, err := cache.NewRedisCountCache(store, rdb, cfg.Redis.CountTTL, log.Named("count-cache"))
			if err != nil {
				return err
			}
			store = cached
			log.Info("count cache enabled", zap.Duration("ttl", cfg.Redis.CountTTL))
		}
	}

	provider, err := newDistanceProvider(cfg.ORS, conn, dialect, log)
	if err != nil {
		return err
	}

	sink := events.MultiSink{events.NewLogSink(log.Named("engine")), events.MetricsSink{}}
	engine, err := services.NewEngine(store, cfg.Engine.Services(),
		services.WithEventSink(sink),
		services.WithCityRepository(cities),
	)
	if err != nil {
		return err
	}

	normalizer := &services.OfferNormalizer{
		Cities:      cities,
		Distances:   provider,
		Store:       store,
		DefaultRate: cfg.Engine.DefaultRate,
		Events:      sink,
	}

	router := api.NewRouter(api.Deps{Engine: engine, Normalizer: normalizer, Store: store, Log: log.Named("http")})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openStore selects the offer store. SQL stores get their schema created and,
// when the seed file exists, demo data loaded.
func openStore(cfg config.DatabaseConfig, log *zap.Logger) (ports.OfferStore, *sql.DB, db.Dialect, error) {
	switch cfg.Driver {
	case "memory":
		mem := repositories.NewMemoryOfferRepository()
		if seed, err := repositories.ReadSeedFile(cfg.SeedPath); err == nil {
			if err := mem.LoadSeed(seed); err != nil {
				return nil, nil, "", err
			}
		} else {
			log.Warn("memory store starts empty", zap.Error(err))
		}
		return mem, nil, "", nil

	case "postgres", "sqlite":
		dialect := db.Dialect(cfg.Driver)

		var conn *sql.DB
		var err error
		if dialect == db.Postgres {
			conn, err = db.OpenPostgres(cfg.DSN)
		} else {
			conn, err = db.OpenSQLite(cfg.Path)
		}
		if err != nil {
			return nil, nil, "", err
		}

		if err := repositories.InitSchema(conn, dialect); err != nil {
			conn.Close()
			return nil, nil, "", err
		}
		if _, err := os.Stat(cfg.SeedPath); err == nil {
			if err := repositories.SeedFromFile(conn, dialect, cfg.SeedPath); err != nil {
				conn.Close()
				return nil, nil, "", err
			}
		}

		return repositories.NewSQLOfferRepository(conn, dialect, log.Named("store")), conn, dialect, nil
	}

	return nil, nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// newDistanceProvider uses ORS when an API key is configured; otherwise a
// great-circle estimate keeps ingestion working offline.
func newDistanceProvider(cfg config.ORSConfig, conn *sql.DB, dialect db.Dialect, log *zap.Logger) (ports.DistanceProvider, error) {
	if cfg.APIKey == "" {
		log.Warn("ORS api key not set, using estimated distances")
		p := distance.NewMockDistanceProvider(nil)
		p.Fallback = true
		return p, nil
	}

	var distanceCache *cache.SQLDistanceCache
	if conn != nil {
		distanceCache = cache.NewSQLDistanceCache(conn, dialect, log.Named("distance-cache"))
	}

	return distance.NewORSDistanceProvider(distance.ORSOptions{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Profile:           cfg.Profile,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, distanceCache, log.Named("ors"))
}

func cityRepository(store ports.OfferStore) (ports.CityRepository, error) {
	cities, ok := store.(ports.CityRepository)
	if !ok {
		return nil, fmt.Errorf("offer store %T cannot resolve cities", store)
	}
	return cities, nil
}
