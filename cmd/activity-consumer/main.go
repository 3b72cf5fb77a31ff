package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/iliyamo/cinelog/internal/config"
	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/queue"
)

// activity-consumer drains the activity queue into logs/activity.log.
func main() {
	cfg := config.LoadEventsConfig()
	logging.Init(logging.Config{Level: "info", Format: "json"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("queue", cfg.Queue).Msg("activity consumer starting")
	if err := queue.StartActivityConsumer(ctx, queue.ConsumerConfig{URL: cfg.URL, Queue: cfg.Queue}); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("activity consumer stopped")
	}
	logging.Info().Msg("activity consumer stopped")
}
