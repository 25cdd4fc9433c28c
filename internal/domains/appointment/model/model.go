package model

import (
	"time"

	"github.com/google/uuid"

	"slotkeeper/shared/constant"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/model"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID            = "id"
	FieldReservationID = "reservation_id"
	FieldClientID      = "client_id"
	FieldUnitID        = "unit_id"
	FieldServiceID     = "service_id"
	FieldResourceID    = "resource_id"
	FieldStartTS       = "start_ts"
	FieldStatus        = "status"
	FieldNotes         = "notes"
	FieldModifiedAt    = "modified_at"
	FieldModifiedBy    = "modified_by"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Origin records which kind of actor created the appointment.
type Origin string

const (
	OriginClient Origin = constant.RoleClient
	OriginStaff  Origin = constant.RoleStaff
	OriginAdmin  Origin = constant.RoleAdmin
)

type Action string

const (
	ActionCancel Action = "cancel"
	ActionNoShow Action = "no_show"
)

// transitions is the whole lifecycle. Statuses without an entry are terminal.
var transitions = map[Status]map[Action]Status{
	StatusScheduled: {
		ActionCancel: StatusCancelled,
		ActionNoShow: StatusNoShow,
	},
}

// violations names the rule broken by an action that has no transition.
var violations = map[Status]map[Action]string{
	StatusCancelled: {
		ActionCancel: "appointment already cancelled",
		ActionNoShow: "only scheduled appointments can be marked as no-show",
	},
	StatusNoShow: {
		ActionCancel: "cannot cancel a no-show appointment",
		ActionNoShow: "only scheduled appointments can be marked as no-show",
	},
}

type Appointment struct {
	ID            string    `db:"id"`
	ReservationID *string   `db:"reservation_id"`
	ClientID      string    `db:"client_id"`
	UnitID        string    `db:"unit_id"`
	ServiceID     string    `db:"service_id"`
	ResourceID    *string   `db:"resource_id"`
	StartTS       time.Time `db:"start_ts"`
	EndTS         time.Time `db:"end_ts"`
	Status        Status    `db:"status"`
	Origin        Origin    `db:"origin"`
	Notes         *string   `db:"notes"`
	CreatedBy     *string   `db:"created_by"`
	ModifiedBy    *string   `db:"modified_by"`
	model.Metadata
}

type ScheduleParams struct {
	ReservationID *string
	ClientID      string
	UnitID        string
	ServiceID     string
	ResourceID    *string
	Start         time.Time
	End           time.Time
	Origin        Origin
	Notes         *string
	Actor         string
}

// Schedule builds a new appointment in the scheduled state.
func Schedule(params ScheduleParams, now time.Time) (Appointment, error) {
	if !params.End.After(params.Start) {
		return Appointment{}, failure.Validation("appointment end must be after start") // nolint:wrapcheck
	}

	var createdBy *string
	if params.Actor != "" {
		createdBy = &params.Actor
	}

	return Appointment{
		ID:            uuid.NewString(),
		ReservationID: params.ReservationID,
		ClientID:      params.ClientID,
		UnitID:        params.UnitID,
		ServiceID:     params.ServiceID,
		ResourceID:    params.ResourceID,
		StartTS:       params.Start.UTC(),
		EndTS:         params.End.UTC(),
		Status:        StatusScheduled,
		Origin:        params.Origin,
		Notes:         params.Notes,
		CreatedBy:     createdBy,
		ModifiedBy:    createdBy,
		Metadata: model.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
		},
	}, nil
}

// Transition returns the status reached by applying action to from.
func Transition(from Status, action Action) (Status, error) {
	if next, ok := transitions[from][action]; ok {
		return next, nil
	}

	if rule, ok := violations[from][action]; ok {
		return from, failure.Validation(rule) // nolint:wrapcheck
	}

	return from, failure.Validation("unsupported transition from " + string(from) + " via " + string(action)) // nolint:wrapcheck
}

// Cancel returns a cancelled copy of a. A non-empty reason replaces the notes.
func Cancel(a Appointment, reason, actor string, now time.Time) (Appointment, error) {
	next, err := Transition(a.Status, ActionCancel)
	if err != nil {
		return a, err
	}

	a.Status = next
	if reason != "" {
		a.Notes = &reason
	}

	return touch(a, actor, now), nil
}

// MarkNoShow returns a no-show copy of a. Only staff-level roles may do this.
func MarkNoShow(a Appointment, actorRole, actor string, now time.Time) (Appointment, error) {
	if !CanMarkNoShow(actorRole) {
		return a, failure.Unauthorized("only staff can mark no-show") // nolint:wrapcheck
	}

	next, err := Transition(a.Status, ActionNoShow)
	if err != nil {
		return a, err
	}

	a.Status = next

	return touch(a, actor, now), nil
}

func CanMarkNoShow(role string) bool {
	return role == constant.RoleStaff || role == constant.RoleAdmin
}

func touch(a Appointment, actor string, now time.Time) Appointment {
	a.ModifiedAt = now
	if actor != "" {
		a.ModifiedBy = &actor
	}

	return a
}
