package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "sweepstakes/internal/adapters/http_server"
	"sweepstakes/internal/adapters/ipapi"
	"sweepstakes/internal/adapters/observability"
	redisad "sweepstakes/internal/adapters/redis"
	"sweepstakes/internal/app"
	"sweepstakes/internal/domain"
	"sweepstakes/internal/shared"
	mysqlrepo "sweepstakes/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(context.Background()); err != nil {
		// reads fall through to the store while redis is away
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	geo := ipapi.New(cfg.GeoBase, cfg.GeoRPS, cfg.GeoTimeout)

	clock := domain.SystemClock
	q := app.NewQueryService(repo, cache, cfg.CacheTTL, clock).WithSnapshotLimit(cfg.SnapshotLimit)
	resolver := app.NewGeoResolver(geo, cache, clock, cfg.GeoTTL, cfg.GeoTimeout)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:                 q,
		Geo:               resolver,
		Clock:             clock,
		CountdownInterval: cfg.CountdownInterval,
		RequestTimeout:    cfg.RequestTimeout,
	})

	httpSrv := srv.HTTPServer(cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	_ = cache.Close()
	_ = db.Close()
	log.Info().Msg("API stopped")
}
