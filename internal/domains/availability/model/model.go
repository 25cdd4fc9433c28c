package model

import (
	"time"

	"github.com/google/uuid"

	"slotkeeper/shared/constant"
	"slotkeeper/shared/model"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID            = "id"
	FieldToken         = "reservation_token"
	FieldUnitID        = "unit_id"
	FieldServiceID     = "service_id"
	FieldStartTS       = "start_ts"
	FieldStatus        = "status"
	FieldExpiresAt     = "expires_at"
	FieldReleaseReason = "release_reason"
	FieldModifiedAt    = "modified_at"
)

type Status string

const (
	StatusLocked    Status = "locked"
	StatusConfirmed Status = "confirmed"
	StatusReleased  Status = "released"
)

type ReleaseReason string

const (
	ReleaseCancelled ReleaseReason = "cancelled"
	ReleaseExpired   ReleaseReason = "expired"
	ReleaseManual    ReleaseReason = "manual"
)

func (r ReleaseReason) Valid() bool {
	switch r {
	case ReleaseCancelled, ReleaseExpired, ReleaseManual:
		return true
	default:
		return false
	}
}

// Reservation is a time-bounded claim on one seat of a generated slot.
// Seat numbers 1..capacity let several active claims share a start while the
// partial unique index on (unit_id, service_id, start_ts, seat) stays the race breaker.
type Reservation struct {
	ID            string     `db:"id"`
	Token         string     `db:"reservation_token"`
	UnitID        string     `db:"unit_id"`
	ServiceID     string     `db:"service_id"`
	ResourceID    *string    `db:"resource_id"`
	StartTS       time.Time  `db:"start_ts"`
	EndTS         time.Time  `db:"end_ts"`
	Seat          int        `db:"seat"`
	Status        Status     `db:"status"`
	ExpiresAt     *time.Time `db:"expires_at"`
	ReleaseReason *string    `db:"release_reason"`
	model.Metadata
}

// IsActive reports whether the reservation still occupies capacity at now.
func (r Reservation) IsActive(now time.Time) bool {
	switch r.Status {
	case StatusConfirmed:
		return true
	case StatusLocked:
		return r.ExpiresAt != nil && r.ExpiresAt.After(now)
	default:
		return false
	}
}

// IsRedeemable reports whether the reservation may still be turned into an appointment.
func (r Reservation) IsRedeemable(now time.Time) bool {
	return r.Status == StatusLocked && r.IsActive(now)
}

// SlotKey identifies a slot across reservations and advisory locks.
func SlotKey(unitID, serviceID string, start time.Time) string {
	return unitID + "|" + serviceID + "|" + start.UTC().Format(time.RFC3339)
}

func NewToken() string {
	return constant.ReservationTokenPrefix + uuid.NewString()
}

// FreeSeat returns the lowest seat in 1..capacity absent from taken, or 0 when every seat is taken.
func FreeSeat(taken []int, capacity int) int {
	used := make(map[int]struct{}, len(taken))
	for _, seat := range taken {
		used[seat] = struct{}{}
	}

	for seat := 1; seat <= capacity; seat++ {
		if _, ok := used[seat]; !ok {
			return seat
		}
	}

	return 0
}
