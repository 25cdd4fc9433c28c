package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=./mocks/event_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	SlotLocked           = "slot.locked"
	SlotReleased         = "slot.released"
	AppointmentCreated   = "appointment.created"
	AppointmentCancelled = "appointment.cancelled"
	AppointmentNoShow    = "appointment.no_show"
)

const (
	DriverMemory = "memory"
	DriverKafka  = "kafka"
)

// Handler receives the JSON encoded payload of one event. Delivery is at-least-once,
// so handlers must tolerate duplicates.
type Handler func(ctx context.Context, payload []byte) error

type Bus interface {
	Publish(ctx context.Context, name string, payload any) error
	Subscribe(name string, handler Handler)
	// Start begins delivery to subscribers and blocks until ctx is done.
	Start(ctx context.Context)
	Close() error
}

// Keyed payloads choose their own partition key.
type Keyed interface {
	EventKey() string
}

// Notify publishes after a committed write. It never fails the caller: the publish
// runs detached from ctx cancellation, bounded by timeout, and errors are only logged.
func Notify(ctx context.Context, bus Bus, timeout time.Duration, name string, payload any) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := bus.Publish(pubCtx, name, payload); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("failed to publish event")
	}
}
