package event

import (
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/infras/kafka"
)

// New selects the bus driver from configuration. The kafka client is only built
// when the kafka driver is chosen.
func New(cfg *config.Config) Bus {
	switch cfg.Event.Driver {
	case DriverKafka:
		return NewKafka(kafka.New(cfg))
	case DriverMemory, "":
		return NewMemory()
	default:
		log.Warn().Str("driver", cfg.Event.Driver).Msg("unknown event driver, falling back to memory")

		return NewMemory()
	}
}
