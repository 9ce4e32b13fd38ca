package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/insight/internal/analytics"
	"github.com/gosuda/insight/internal/backend"
	"github.com/gosuda/insight/internal/config"
	"github.com/gosuda/insight/internal/metrics"
	"github.com/gosuda/insight/internal/server"
	"github.com/gosuda/insight/internal/store/postgres"
	redisstore "github.com/gosuda/insight/internal/store/redis"
	"github.com/gosuda/insight/internal/window"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Bootstrap logger until configuration is loaded.
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(cfg.Log.Level)
	if cfg.Log.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to the vendor database for the tenant universe.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	checks := map[string]server.Pinger{"postgres": store}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client, err := backend.New(backend.Config{
		BaseURL:  cfg.Backend.URL,
		Token:    cfg.Backend.Token,
		PageSize: cfg.Backend.PageSize,
		Timeout:  cfg.Backend.Timeout,
		RPS:      cfg.Backend.RPS,
		Burst:    cfg.Backend.Burst,
	}, backend.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	serviceOpts := []analytics.ServiceOption{
		analytics.WithComputeTimeout(cfg.Analytics.ComputeTimeout),
		analytics.WithServiceMetrics(m),
	}

	// Redis is optional; without it every request recomputes.
	if cfg.Redis.Addr != "" {
		cache, cacheErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if cacheErr != nil {
			return cacheErr
		}
		defer cache.Close()

		serviceOpts = append(serviceOpts, analytics.WithCache(cache, cfg.Analytics.CacheTTL))
		checks["redis"] = cache
	} else {
		log.Warn().Msg("INSIGHT_REDIS_ADDR not set; result cache disabled")
	}

	aggregator := analytics.NewAggregator(client, client,
		analytics.WithFanoutWidth(cfg.Analytics.FanoutWidth),
		analytics.WithMetrics(m),
	)
	resolver := window.NewResolver(cfg.Analytics.Location, time.Now)
	svc := analytics.NewService(store.Tenants(), aggregator, resolver, serviceOpts...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, svc, reg, checks)

	// Start server in background goroutine.
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("timezone", cfg.Analytics.Timezone).
			Int("fanout_width", cfg.Analytics.FanoutWidth).
			Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
