package di

import (
	availabilityService "slotkeeper/internal/domains/availability/service"
	"slotkeeper/shared/event"
	"slotkeeper/transport/http"
)

// App holds the long running parts started by cmd/app.
type App struct {
	HTTP    *http.HTTP
	Sweeper *availabilityService.Sweeper
	Bus     event.Bus
}
