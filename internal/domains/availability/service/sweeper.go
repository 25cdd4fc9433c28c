package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"slotkeeper/config"
)

// Sweeper periodically relabels lapsed locks as released. Capacity accounting never depends on
// it: expired locks stop counting as soon as their expiry passes.
type Sweeper struct {
	service  Availability
	interval time.Duration
}

func NewSweeper(service Availability, cfg *config.Config) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: cfg.SweepInterval(),
	}
}

// Run sweeps once per interval until ctx is done. A non-positive interval disables it.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("reservation sweeper disabled")

		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			log.Info().Msg("reservation sweeper stopped")

			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.service.ReleaseExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep expired reservations")

		return
	}

	if count > 0 {
		log.Info().Int("count", count).Msg("released expired reservations")
	}
}
