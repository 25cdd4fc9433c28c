package capacity

//go:generate go run go.uber.org/mock/mockgen -source=./capacity.go -destination=./mocks/capacity_mock.go -package=mocks

import (
	"context"
	"time"
)

// Record is what the capacity authority knows about a reservation token.
type Record struct {
	Token      string    `json:"reservation_token"`
	UnitID     string    `json:"unit_id"`
	ServiceID  string    `json:"service_id"`
	ResourceID *string   `json:"resource_id,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Authority looks a token up remotely. An unknown token yields failure.NotFound.
type Authority interface {
	Lookup(ctx context.Context, token string) (Record, error)
}

// Validator re-confirms a reservation token before it is spent.
type Validator interface {
	Validate(ctx context.Context, token string) (Record, error)
	Health() Health
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

type Health struct {
	Status        Status     `json:"status"`
	BreakerState  string     `json:"breaker_state"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
}
