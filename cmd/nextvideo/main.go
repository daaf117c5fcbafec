package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"nextvideo/internal/app"
	"nextvideo/internal/config"
	"nextvideo/internal/db"
	"nextvideo/internal/logging"
	"nextvideo/internal/metrics"
	"nextvideo/internal/server"
)

func main() {
	envLine, envErr := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, "nextvideo")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("env: load failed")
	} else if envLine != "" {
		log.Info().Msg(envLine)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	metrics.Register(prometheus.DefaultRegisterer)

	if a.PGCache != nil {
		go pruneCacheLoop(ctx, a.PGCache, cfg, log)
	}

	srv := server.New(
		server.NewHandlers(a.Service, log),
		server.NewHealthHandler(a.Pool, a.Redis),
		log,
	)

	go func() {
		<-ctx.Done()
		log.Info().Err(ctx.Err()).Msg("shutdown: draining")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown: failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Str("cache", cfg.CacheBackend).Msg("nextvideo: listening")
	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen failed")
	}
}

// pruneCacheLoop deletes expired Postgres cache rows once per day at the
// configured UTC time.
func pruneCacheLoop(ctx context.Context, store *db.CacheStore, cfg config.Config, log zerolog.Logger) {
	for {
		next := nextDailyRunUTC(time.Now(), cfg.CachePruneUTCHour, cfg.CachePruneUTCMin)
		wait := time.Until(next)
		log.Info().Time("next", next).Dur("in", wait.Round(time.Second)).Msg("cache: prune scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		n, err := store.PruneExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("cache: prune failed")
			continue
		}
		log.Info().Int64("deleted", n).Msg("cache: pruned expired rows")
	}
}

func nextDailyRunUTC(now time.Time, hour, min int) time.Time {
	n := now.UTC()
	cand := time.Date(n.Year(), n.Month(), n.Day(), hour, min, 0, 0, time.UTC)
	if !cand.After(n) {
		cand = cand.Add(24 * time.Hour)
	}
	return cand
}
