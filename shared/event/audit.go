package event

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Names lists every event the booking core emits.
var Names = []string{SlotLocked, SlotReleased, AppointmentCreated, AppointmentCancelled, AppointmentNoShow}

// SubscribeAudit records every booking event in the structured log.
func SubscribeAudit(bus Bus, logger zerolog.Logger) {
	for _, name := range Names {
		bus.Subscribe(name, func(_ context.Context, payload []byte) error {
			entry := logger.Info().Str("event", name)

			if json.Valid(payload) {
				entry = entry.RawJSON("payload", payload)
			} else {
				entry = entry.Bytes("payload", payload)
			}

			entry.Msg("booking event")

			return nil
		})
	}
}

// AuditLogger is the default logger for SubscribeAudit.
func AuditLogger() zerolog.Logger {
	return log.With().Str("component", "audit").Logger()
}
