package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/di"
	"slotkeeper/helper"
	"slotkeeper/shared/event"
	"slotkeeper/shared/logger"
	"slotkeeper/shared/timezone"
)

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	if err := timezone.Init(cfg.App.Timezone); err != nil {
		log.Warn().Err(err).Msg("Falling back to UTC for rendered timestamps")
	}

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	app, cleanup, err := di.InitializeApp()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	event.SubscribeAudit(app.Bus, event.AuditLogger())

	var workers sync.WaitGroup

	workers.Add(2)

	go func() {
		defer workers.Done()

		app.Bus.Start(ctx)
	}()

	go func() {
		defer workers.Done()

		app.Sweeper.Run(ctx)
	}()

	serveErr := app.HTTP.Serve(ctx)

	stop()
	workers.Wait()

	if err := app.Bus.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close event bus")
	}

	cleanup()

	if serveErr != nil {
		log.Fatal().Err(serveErr).Msg("HTTP server stopped with error")
	}

	log.Info().Msg("Shutdown complete.")
}
