package event

// SlotUsage is the capacity snapshot attached to slot events.
type SlotUsage struct {
	UnitID        string  `json:"unit_id"`
	ServiceID     string  `json:"service_id"`
	ResourceID    *string `json:"resource_id,omitempty"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	CapacityTotal int     `json:"capacity_total"`
	CapacityUsed  int     `json:"capacity_used"`
}

func (s SlotUsage) EventKey() string {
	return s.UnitID + ":" + s.ServiceID + ":" + s.Date + "T" + s.StartTime
}

type SlotLockedPayload struct {
	SlotUsage
	ReservationToken string `json:"reservation_token"`
	ExpiresAt        string `json:"expires_at"`
}

type SlotReleasedPayload struct {
	SlotUsage
	ReservationToken string `json:"reservation_token"`
	Reason           string `json:"reason"`
}

type AppointmentPayload struct {
	AppointmentID string  `json:"appointment_id"`
	ReservationID *string `json:"reservation_id,omitempty"`
	ClientID      string  `json:"client_id"`
	UnitID        string  `json:"unit_id"`
	ServiceID     string  `json:"service_id"`
	ResourceID    *string `json:"resource_id,omitempty"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Status        string  `json:"status"`
	Origin        string  `json:"origin,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	ActorRole     string  `json:"actor_role,omitempty"`
}

func (a AppointmentPayload) EventKey() string {
	return a.AppointmentID
}
