package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/nomad-planner/internal/api"
	"github.com/neexbeast/nomad-planner/internal/catalog"
	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/config"
	"github.com/neexbeast/nomad-planner/internal/journey"
	"github.com/neexbeast/nomad-planner/internal/kv"
	"github.com/neexbeast/nomad-planner/internal/metrics"
	"github.com/neexbeast/nomad-planner/internal/offer"
	"github.com/neexbeast/nomad-planner/internal/prefs"
	"github.com/neexbeast/nomad-planner/internal/storage"
	"github.com/neexbeast/nomad-planner/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()
	reg := metrics.InitRegistry()
	pingers := map[string]api.Pinger{}

	var (
		provider catalog.CityProvider
		store    api.CityStore
		kvStore  prefs.KV = prefs.NewMemoryKV()
	)

	// PostgreSQL replaces the remote catalog and holds preferences when configured.
	if cfg.DatabaseURL != "" {
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		cities := storage.NewCityRepository(pool)
		n, err := cities.SeedIfEmpty(ctx, city.Seed())
		if err != nil {
			return fmt.Errorf("seeding cities: %w", err)
		}
		if n > 0 {
			log.Info("city catalog seeded", "count", n)
		}

		provider, store = cities, cities
		kvStore = storage.NewPreferenceRepository(pool)
		pingers["db"] = &pgxPoolPinger{pool: pool}
	} else {
		provider = catalog.NewHTTPClient(cfg.CatalogURL, catalog.ClientConfig{
			Timeout:        cfg.CatalogTimeout,
			BreakerTimeout: cfg.BreakerTimeout,
		}, log)
		log.Info("using remote city catalog", "url", cfg.CatalogURL)
	}

	// Redis takes over preference storage when configured.
	if cfg.RedisURL != "" {
		redisClient, err := kv.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		kvStore = kv.NewRedisStore(redisClient, 0)
		pingers["redis"] = &redisPingerAdapter{client: redisClient}
	}

	// Wire dependencies.
	svc := catalog.NewService(provider, prefs.NewStore(kvStore, log), log)
	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping catalog: %w", err)
	}

	var synth *offer.Synthesizer
	if cfg.OfferSeed != nil {
		synth = offer.NewSynthesizer(*cfg.OfferSeed)
	} else {
		synth = offer.NewRandomSynthesizer()
	}
	planner := journey.NewPlanner(synth, svc, log)
	handlers := api.NewHandlers(svc, synth, planner, store, log)

	router := api.NewRouter(handlers, api.RouterOptions{
		Token:              cfg.APIToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Pingers:            pingers,
		Registry:           reg,
		Log:                log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to api.Pinger.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
