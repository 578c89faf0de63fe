package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/badge"
	"github.com/agfi/registro-backend/internal/config"
	"github.com/agfi/registro-backend/internal/database"
	"github.com/agfi/registro-backend/internal/handler"
	"github.com/agfi/registro-backend/internal/lock"
	"github.com/agfi/registro-backend/internal/logging"
	"github.com/agfi/registro-backend/internal/queue"
	"github.com/agfi/registro-backend/internal/repository"
	"github.com/agfi/registro-backend/internal/router"
	"github.com/agfi/registro-backend/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logging.Fatal().Err(err).Msg("schema migration failed")
		}
		logging.Info().Msg("schema applied")
	}

	// Redis is optional: without it locks are in-process and login is not
	// throttled.
	rdb := config.NewRedisClient()
	locker := lock.New(rdb, cfg.LockTTL)

	var notifier service.Notifier
	if pub := queue.NewPublisher(cfg.AMQPURL); pub != nil {
		notifier = pub
	}

	svc := service.New(service.NewSQLStore(repository.NewStore(db)), locker, notifier, service.Options{
		BadgePrefix:        cfg.BadgePrefix,
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.AccessTTL,
		HashNewCredentials: cfg.HashNewPasswords,
		BcryptCost:         cfg.BcryptCost,
	})

	badges, err := badge.NewRenderer(cfg.BadgeLogoPath)
	if err != nil {
		logging.Warn().Err(err).Msg("badge logo unavailable, rendering without it")
	}

	e := echo.New()
	router.Setup(e, cfg.CORSOrigins)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterManagement(e, handler.NewManageHandler(svc, badges), cfg.JWTSecret)
	router.RegisterProfile(e, handler.NewProfileHandler(svc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
