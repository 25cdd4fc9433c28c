package dto

import (
	"time"

	"slotkeeper/internal/domains/availability/model"
)

type ListAvailabilityRequest struct {
	UnitID    string `json:"unit_id"    validate:"required"`
	ServiceID string `json:"service_id" validate:"required"`
	Date      string `json:"date"       validate:"required,datetime=2006-01-02"`
}

type SlotResponse struct {
	Start             string `json:"start"`
	End               string `json:"end"`
	Capacity          int    `json:"capacity"`
	RemainingCapacity int    `json:"remaining_capacity"`
	Available         bool   `json:"available"`
}

func (r *SlotResponse) FromModel(slot model.SlotAvailability) {
	r.Start = slot.Start.UTC().Format(time.RFC3339)
	r.End = slot.End.UTC().Format(time.RFC3339)
	r.Capacity = slot.Capacity
	r.RemainingCapacity = slot.RemainingCapacity
	r.Available = slot.Available
}

type ListAvailabilityResponse struct {
	UnitID    string         `json:"unit_id"`
	ServiceID string         `json:"service_id"`
	Date      string         `json:"date"`
	Slots     []SlotResponse `json:"slots"`
}

func (r *ListAvailabilityResponse) FromModels(req ListAvailabilityRequest, slots []model.SlotAvailability) {
	r.UnitID = req.UnitID
	r.ServiceID = req.ServiceID
	r.Date = req.Date

	r.Slots = make([]SlotResponse, len(slots))
	for i, slot := range slots {
		r.Slots[i].FromModel(slot)
	}
}

type LockSlotRequest struct {
	UnitID     string    `json:"unit_id"     validate:"required"`
	ServiceID  string    `json:"service_id"  validate:"required"`
	ResourceID *string   `json:"resource_id" validate:"omitempty"`
	Start      time.Time `json:"start"       validate:"required"`
	End        time.Time `json:"end"         validate:"required"`
}

type LockSlotResponse struct {
	ReservationToken string `json:"reservation_token"`
	SlotStart        string `json:"slot_start"`
	SlotEnd          string `json:"slot_end"`
	ExpiresAt        string `json:"expires_at"`
}

func (r *LockSlotResponse) FromModel(reservation model.Reservation) {
	r.ReservationToken = reservation.Token
	r.SlotStart = reservation.StartTS.UTC().Format(time.RFC3339)
	r.SlotEnd = reservation.EndTS.UTC().Format(time.RFC3339)

	if reservation.ExpiresAt != nil {
		r.ExpiresAt = reservation.ExpiresAt.UTC().Format(time.RFC3339)
	}
}

type ReleaseSlotRequest struct {
	ReservationToken string `json:"reservation_token" validate:"required,reservation_token"`
	Reason           string `json:"reason"            validate:"omitempty,oneof=cancelled expired manual"`
}

// ReleaseReason defaults to manual.
func (r ReleaseSlotRequest) ReleaseReason() model.ReleaseReason {
	if r.Reason == "" {
		return model.ReleaseManual
	}

	return model.ReleaseReason(r.Reason)
}
