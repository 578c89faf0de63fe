// Command checkin-consumer appends every check-in notification published by
// the server to a local log file.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/agfi/registro-backend/internal/config"
	"github.com/agfi/registro-backend/internal/logging"
	"github.com/agfi/registro-backend/internal/queue"
)

func main() {
	config.LoadDotEnv()
	logging.Init(logging.Config{
		Level:  config.Getenv("LOG_LEVEL", "info"),
		Format: config.Getenv("LOG_FORMAT", "json"),
	})

	url := config.AMQPURL()
	if url == "" {
		logging.Fatal().Msg("RABBITMQ_URL is not set")
	}
	dir := config.Getenv("CHECKIN_LOG_DIR", "logs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("dir", dir).Msg("check-in consumer started")
	if err := queue.StartCheckInConsumer(ctx, url, dir); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("consumer stopped")
	}
	logging.Info().Msg("check-in consumer stopped")
}
