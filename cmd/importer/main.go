package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"sweepstakes/internal/adapters/observability"
	redisad "sweepstakes/internal/adapters/redis"
	"sweepstakes/internal/app"
	"sweepstakes/internal/domain"
	"sweepstakes/internal/scheduler"
	"sweepstakes/internal/shared"
	mysqlrepo "sweepstakes/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	path := cfg.ImportFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Info().
		Str("file", path).
		Int("workers", cfg.ImportWorkers).
		Str("schedule", cfg.ImportSchedule).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	imp := app.NewImportService(repo, cache, domain.SystemClock)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2) one-shot unless a schedule is configured
	if cfg.ImportSchedule == "" {
		sum, err := imp.ImportFile(ctx, path, cfg.ImportWorkers)
		if err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
		log.Info().Int("imported", sum.Imported).Int("failed", sum.Failed).Msg("import completed")
		if sum.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	s := scheduler.New(imp, cfg.ImportSchedule, path, cfg.ImportWorkers)
	if err := s.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}
	<-ctx.Done()
	s.Stop()
	_ = cache.Close()
	_ = db.Close()
}
