// Package memstore is an in-memory stand-in for the Postgres schema used by service tests.
// Transactions are serialized by one mutex and roll back by restoring a snapshot, and the
// partial unique indexes of the real schema are enforced with the same SQLSTATE.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"slotkeeper/infras/postgres"
	appointmentModel "slotkeeper/internal/domains/appointment/model"
	appointmentRepo "slotkeeper/internal/domains/appointment/repository"
	availabilityModel "slotkeeper/internal/domains/availability/model"
	idempotencyModel "slotkeeper/internal/domains/idempotency/model"
	slotModel "slotkeeper/internal/domains/slot/model"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/failure"
)

type state struct {
	reservations map[string]availabilityModel.Reservation
	appointments map[string]appointmentModel.Appointment
	idempotency  map[string]idempotencyModel.Record
}

func (s state) clone() state {
	return state{
		reservations: maps.Clone(s.reservations),
		appointments: maps.Clone(s.appointments),
		idempotency:  maps.Clone(s.idempotency),
	}
}

type Store struct {
	txMu sync.Mutex

	mu        sync.Mutex
	data      state
	templates []slotModel.SlotTemplate
	faults    map[string]error
}

func New(templates ...slotModel.SlotTemplate) *Store {
	return &Store{
		data: state{
			reservations: map[string]availabilityModel.Reservation{},
			appointments: map[string]appointmentModel.Appointment{},
			idempotency:  map[string]idempotencyModel.Record{},
		},
		templates: templates,
		faults:    map[string]error{},
	}
}

// WithinTx runs fn with a nil *sqlx.Tx. Any error restores the state seen before fn ran.
func (s *Store) WithinTx(ctx context.Context, fn postgres.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()

		return err
	}

	return nil
}

// FailOnce makes the next call of op return err. op is "<view>.<Method>", e.g. "appointments.InsertTx".
func (s *Store) FailOnce(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	err, ok := s.faults[op]
	if ok {
		delete(s.faults, op)
	}

	return err
}

// PutReservation stores r as is, bypassing every check. Useful for expired fixtures.
func (s *Store) PutReservation(r availabilityModel.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.reservations[r.ID] = r
}

func (s *Store) PutAppointment(a appointmentModel.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.appointments[a.ID] = a
}

func (s *Store) ReservationByToken(token string) (availabilityModel.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.reservations {
		if r.Token == token {
			return r, true
		}
	}

	return availabilityModel.Reservation{}, false
}

func (s *Store) AppointmentList() []appointmentModel.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Collect(maps.Values(s.data.appointments))
}

func (s *Store) Templates() *Templates       { return &Templates{store: s} }
func (s *Store) Reservations() *Reservations { return &Reservations{store: s} }
func (s *Store) Appointments() *Appointments { return &Appointments{store: s} }
func (s *Store) Idempotency() *Idempotency   { return &Idempotency{store: s} }

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: constant.PqErrorCodeUniqueViolation, Constraint: constraint}
}

type Templates struct {
	store *Store
}

func (t *Templates) GetByWeekday(_ context.Context, unitID, serviceID string, weekday int) ([]slotModel.SlotTemplate, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := t.store.fault("templates.GetByWeekday"); err != nil {
		return nil, err
	}

	var found []slotModel.SlotTemplate

	for _, template := range t.store.templates {
		if template.UnitID == unitID && template.ServiceID == serviceID && template.Weekday == weekday {
			found = append(found, template)
		}
	}

	return found, nil
}

type Reservations struct {
	store *Store
}

func sameSlot(r availabilityModel.Reservation, unitID, serviceID string, start time.Time) bool {
	return r.UnitID == unitID && r.ServiceID == serviceID && r.StartTS.Equal(start)
}

func (v *Reservations) AcquireSlotLockTx(_ context.Context, _ *sqlx.Tx, _ string) error {
	return nil
}

func (v *Reservations) ExpireStaleTx(_ context.Context, _ *sqlx.Tx, unitID, serviceID string, start, now time.Time) (int64, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	var affected int64

	for id, r := range v.store.data.reservations {
		if sameSlot(r, unitID, serviceID, start) && r.Status == availabilityModel.StatusLocked && r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
			r.Status = availabilityModel.StatusReleased
			reason := string(availabilityModel.ReleaseExpired)
			r.ReleaseReason = &reason
			r.ModifiedAt = now
			v.store.data.reservations[id] = r
			affected++
		}
	}

	return affected, nil
}

func (v *Reservations) ActiveSeatsTx(_ context.Context, _ *sqlx.Tx, unitID, serviceID string, start, now time.Time) ([]int, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.fault("reservations.ActiveSeatsTx"); err != nil {
		return nil, err
	}

	var seats []int

	for _, r := range v.store.data.reservations {
		if sameSlot(r, unitID, serviceID, start) && r.IsActive(now) {
			seats = append(seats, r.Seat)
		}
	}

	slices.Sort(seats)

	return seats, nil
}

func (v *Reservations) InsertTx(_ context.Context, _ *sqlx.Tx, reservation availabilityModel.Reservation) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.fault("reservations.InsertTx"); err != nil {
		return err
	}

	for _, r := range v.store.data.reservations {
		if r.Token == reservation.Token {
			return uniqueViolation("reservations_reservation_token_key")
		}

		holdsIndex := r.Status == availabilityModel.StatusLocked || r.Status == availabilityModel.StatusConfirmed
		if holdsIndex && sameSlot(r, reservation.UnitID, reservation.ServiceID, reservation.StartTS) && r.Seat == reservation.Seat {
			return uniqueViolation("reservations_active_slot_seat_key")
		}
	}

	v.store.data.reservations[reservation.ID] = reservation

	return nil
}

func (v *Reservations) GetByTokenForUpdateTx(_ context.Context, _ *sqlx.Tx, token string) (availabilityModel.Reservation, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	for _, r := range v.store.data.reservations {
		if r.Token == token {
			return r, nil
		}
	}

	return availabilityModel.Reservation{}, nil
}

func (v *Reservations) ReleaseTx(_ context.Context, _ *sqlx.Tx, id string, from availabilityModel.Status, reason availabilityModel.ReleaseReason, now time.Time) (int64, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	r, ok := v.store.data.reservations[id]
	if !ok || r.Status != from {
		return 0, nil
	}

	why := string(reason)
	r.Status = availabilityModel.StatusReleased
	r.ReleaseReason = &why
	r.ModifiedAt = now
	v.store.data.reservations[id] = r

	return 1, nil
}

func (v *Reservations) ConfirmTx(_ context.Context, _ *sqlx.Tx, id string, now time.Time) (int64, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	r, ok := v.store.data.reservations[id]
	if !ok || r.Status != availabilityModel.StatusLocked {
		return 0, nil
	}

	r.Status = availabilityModel.StatusConfirmed
	r.ExpiresAt = nil
	r.ModifiedAt = now
	v.store.data.reservations[id] = r

	return 1, nil
}

func (v *Reservations) UsageByDay(_ context.Context, unitID, serviceID string, dayStart, dayEnd, now time.Time) (availabilityModel.Usage, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	usage := availabilityModel.Usage{}

	for _, r := range v.store.data.reservations {
		inDay := !r.StartTS.Before(dayStart) && r.StartTS.Before(dayEnd)
		if r.UnitID == unitID && r.ServiceID == serviceID && inDay && r.IsActive(now) {
			usage[r.StartTS.Unix()]++
		}
	}

	return usage, nil
}

func (v *Reservations) ReleaseExpired(_ context.Context, now time.Time, limit int) ([]availabilityModel.Reservation, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	var released []availabilityModel.Reservation

	for id, r := range v.store.data.reservations {
		if len(released) == limit {
			break
		}

		if r.Status != availabilityModel.StatusLocked || r.ExpiresAt == nil || r.ExpiresAt.After(now) {
			continue
		}

		reason := string(availabilityModel.ReleaseExpired)
		r.Status = availabilityModel.StatusReleased
		r.ReleaseReason = &reason
		r.ModifiedAt = now
		v.store.data.reservations[id] = r
		released = append(released, r)
	}

	return released, nil
}

// Appointments implements the transactional part of the appointment repository.
// List queries are not supported and panic through the nil embedded interface.
type Appointments struct {
	appointmentRepo.Appointment
	store *Store
}

func (v *Appointments) InsertTx(_ context.Context, _ *sqlx.Tx, appointment appointmentModel.Appointment) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.fault("appointments.InsertTx"); err != nil {
		return err
	}

	for _, a := range v.store.data.appointments {
		if a.ReservationID != nil && appointment.ReservationID != nil && *a.ReservationID == *appointment.ReservationID {
			return uniqueViolation("appointments_reservation_id_key")
		}
	}

	v.store.data.appointments[appointment.ID] = appointment

	return nil
}

// Get supports the single id filter built by shared.FilterByID.
func (v *Appointments) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (appointmentModel.Appointment, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	for _, f := range filter.Filters {
		if eq, ok := f.(gDto.Filter); ok && eq.Field == appointmentModel.FieldID {
			id, _ := eq.Value.(string)

			return v.store.data.appointments[id], nil
		}
	}

	return appointmentModel.Appointment{}, nil
}

func (v *Appointments) GetByIDForUpdateTx(_ context.Context, _ *sqlx.Tx, id string) (appointmentModel.Appointment, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	return v.store.data.appointments[id], nil
}

func (v *Appointments) UpdateLifecycleTx(_ context.Context, _ *sqlx.Tx, appointment appointmentModel.Appointment) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := v.store.fault("appointments.UpdateLifecycleTx"); err != nil {
		return err
	}

	v.store.data.appointments[appointment.ID] = appointment

	return nil
}

func (v *Appointments) CountUnlinkedTx(_ context.Context, _ *sqlx.Tx, unitID, serviceID string, start time.Time) (int, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	count := 0

	for _, a := range v.store.data.appointments {
		if a.ReservationID == nil && a.Status == appointmentModel.StatusScheduled &&
			a.UnitID == unitID && a.ServiceID == serviceID && a.StartTS.Equal(start) {
			count++
		}
	}

	return count, nil
}

func (v *Appointments) UnlinkedUsageByDay(_ context.Context, unitID, serviceID string, dayStart, dayEnd time.Time) (map[int64]int, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	usage := map[int64]int{}

	for _, a := range v.store.data.appointments {
		inDay := !a.StartTS.Before(dayStart) && a.StartTS.Before(dayEnd)
		if a.ReservationID == nil && a.Status == appointmentModel.StatusScheduled && a.UnitID == unitID && a.ServiceID == serviceID && inDay {
			usage[a.StartTS.Unix()]++
		}
	}

	return usage, nil
}

type Idempotency struct {
	store *Store
}

func (v *Idempotency) GetTx(_ context.Context, _ *sqlx.Tx, key string, now time.Time) (idempotencyModel.Record, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	record := v.store.data.idempotency[key]
	if !record.IsLive(now) {
		return idempotencyModel.Record{}, nil
	}

	return record, nil
}

func (v *Idempotency) SaveTx(_ context.Context, _ *sqlx.Tx, record idempotencyModel.Record) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if existing, ok := v.store.data.idempotency[record.Key]; ok && existing.IsLive(record.CreatedAt) {
		return failure.Conflict("idempotency key already used") // nolint:wrapcheck
	}

	v.store.data.idempotency[record.Key] = record

	return nil
}
