package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	appointmentRepo "slotkeeper/internal/domains/appointment/repository"
	"slotkeeper/internal/domains/availability/model"
	"slotkeeper/internal/domains/availability/model/dto"
	"slotkeeper/internal/domains/availability/repository"
	slotModel "slotkeeper/internal/domains/slot/model"
	slotRepo "slotkeeper/internal/domains/slot/repository"
	"slotkeeper/shared/constant"
	"slotkeeper/shared/event"
	"slotkeeper/shared/failure"
	gModel "slotkeeper/shared/model"
	"slotkeeper/shared/timezone"
)

const sweepBatchSize = 500

type Availability interface {
	ListAvailability(ctx context.Context, req dto.ListAvailabilityRequest) (dto.ListAvailabilityResponse, error)
	LockSlot(ctx context.Context, req dto.LockSlotRequest) (dto.LockSlotResponse, error)
	ReleaseSlot(ctx context.Context, token string, reason model.ReleaseReason) error
	// ReleaseExpired labels lapsed locks as released and reports how many it found.
	ReleaseExpired(ctx context.Context) (int, error)
}

type serviceImpl struct {
	templates    slotRepo.SlotTemplate
	reservations repository.Reservation
	appointments appointmentRepo.Appointment
	tx           postgres.Transactor
	bus          event.Bus
	cfg          *config.Config
	otel         otel.Otel
}

func New(
	templates slotRepo.SlotTemplate,
	reservations repository.Reservation,
	appointments appointmentRepo.Appointment,
	tx postgres.Transactor,
	bus event.Bus,
	cfg *config.Config,
	otel otel.Otel,
) Availability {
	return &serviceImpl{
		templates:    templates,
		reservations: reservations,
		appointments: appointments,
		tx:           tx,
		bus:          bus,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *serviceImpl) ListAvailability(ctx context.Context, req dto.ListAvailabilityRequest) (res dto.ListAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	day, err := timezone.ParseDay(req.Date)
	if err != nil {
		return res, failure.Validation("invalid date format, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	templates, err := s.templates.GetByWeekday(ctx, req.UnitID, req.ServiceID, int(day.Weekday()))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot templates")

		return res, fmt.Errorf("failed to get slot templates: %w", err)
	}

	var slots []slotModel.Slot

	for _, template := range templates {
		generated, err := slotModel.GenerateSlots(template, day)
		if err != nil {
			log.Warn().Err(err).Str("template_id", template.ID).Msg("skipping invalid slot template")

			continue
		}

		slots = append(slots, generated...)
	}

	if len(slots) == 0 {
		res.FromModels(req, nil)

		return res, nil
	}

	usage, err := s.dayUsage(ctx, req.UnitID, req.ServiceID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return res, err
	}

	res.FromModels(req, model.ComputeAvailability(slots, usage))

	return res, nil
}

// dayUsage counts active reservations and unlinked scheduled appointments per start in [from, to).
func (s *serviceImpl) dayUsage(ctx context.Context, unitID, serviceID string, from, to time.Time) (model.Usage, error) {
	usage, err := s.reservations.UsageByDay(ctx, unitID, serviceID, from, to, timezone.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation usage")

		return nil, fmt.Errorf("failed to get reservation usage: %w", err)
	}

	unlinked, err := s.appointments.UnlinkedUsageByDay(ctx, unitID, serviceID, from, to)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment usage")

		return nil, fmt.Errorf("failed to get appointment usage: %w", err)
	}

	if usage == nil {
		usage = model.Usage{}
	}

	for start, count := range unlinked {
		usage[start] += count
	}

	return usage, nil
}

func (s *serviceImpl) LockSlot(ctx context.Context, req dto.LockSlotRequest) (res dto.LockSlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".LockSlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	start, end := req.Start.UTC(), req.End.UTC()
	if !start.Before(end) {
		return res, failure.Validation("slot end must be after start") // nolint:wrapcheck
	}

	templates, err := s.templates.GetByWeekday(ctx, req.UnitID, req.ServiceID, int(start.Weekday()))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot templates")

		return res, fmt.Errorf("failed to get slot templates: %w", err)
	}

	template, slot, ok := slotModel.MatchSlot(templates, start)
	if !ok || !slot.End.Equal(end) {
		return res, failure.Validation("slot not allowed for the configured templates") // nolint:wrapcheck
	}

	now := timezone.Now().UTC()
	expiresAt := now.Add(s.cfg.ReservationTTL())

	reservation := model.Reservation{
		ID:         uuid.NewString(),
		Token:      model.NewToken(),
		UnitID:     req.UnitID,
		ServiceID:  req.ServiceID,
		ResourceID: req.ResourceID,
		StartTS:    start,
		EndTS:      end,
		Status:     model.StatusLocked,
		ExpiresAt:  &expiresAt,
		Metadata:   gModel.Metadata{CreatedAt: now, ModifiedAt: now},
	}

	var used int

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.reservations.AcquireSlotLockTx(ctx, tx, model.SlotKey(req.UnitID, req.ServiceID, start)); err != nil {
			return err //nolint:wrapcheck
		}

		if _, err := s.reservations.ExpireStaleTx(ctx, tx, req.UnitID, req.ServiceID, start, now); err != nil {
			return err //nolint:wrapcheck
		}

		seats, err := s.reservations.ActiveSeatsTx(ctx, tx, req.UnitID, req.ServiceID, start, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if len(seats) >= template.CapacityPerSlot {
			return failure.Conflict("slot already reserved") // nolint:wrapcheck
		}

		unlinked, err := s.appointments.CountUnlinkedTx(ctx, tx, req.UnitID, req.ServiceID, start)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if len(seats)+unlinked >= template.CapacityPerSlot {
			return failure.Conflict("slot already booked") // nolint:wrapcheck
		}

		reservation.Seat = model.FreeSeat(seats, template.CapacityPerSlot)
		if reservation.Seat == 0 {
			return failure.Conflict("slot already reserved") // nolint:wrapcheck
		}

		if err := s.reservations.InsertTx(ctx, tx, reservation); err != nil {
			if postgres.IsUniqueViolation(err) {
				return failure.Conflict("slot already locked") // nolint:wrapcheck
			}

			return err //nolint:wrapcheck
		}

		used = len(seats) + unlinked + 1

		return nil
	})
	if err != nil {
		if failure.IsDomain(err) {
			return res, err
		}

		log.Error().Err(err).Msg("failed to lock slot")

		return res, fmt.Errorf("failed to lock slot: %w", err)
	}

	event.Notify(ctx, s.bus, s.cfg.PublishTimeout(), event.SlotLocked, event.SlotLockedPayload{
		SlotUsage:        slotUsage(reservation, template.CapacityPerSlot, used),
		ReservationToken: reservation.Token,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
	})

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) ReleaseSlot(ctx context.Context, token string, reason model.ReleaseReason) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReleaseSlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !reason.Valid() {
		return failure.Validation("invalid release reason") // nolint:wrapcheck
	}

	now := timezone.Now().UTC()

	var (
		reservation model.Reservation
		used        int
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error

		reservation, err = s.reservations.GetByTokenForUpdateTx(ctx, tx, token)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if reservation.ID == constant.Empty || reservation.Status != model.StatusLocked {
			return failure.Conflict("reservation already released or not found") // nolint:wrapcheck
		}

		affected, err := s.reservations.ReleaseTx(ctx, tx, reservation.ID, model.StatusLocked, reason, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if affected == 0 {
			return failure.Conflict("reservation already released or not found") // nolint:wrapcheck
		}

		seats, err := s.reservations.ActiveSeatsTx(ctx, tx, reservation.UnitID, reservation.ServiceID, reservation.StartTS, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		unlinked, err := s.appointments.CountUnlinkedTx(ctx, tx, reservation.UnitID, reservation.ServiceID, reservation.StartTS)
		if err != nil {
			return err //nolint:wrapcheck
		}

		used = len(seats) + unlinked

		return nil
	})
	if err != nil {
		if failure.IsDomain(err) {
			return err
		}

		log.Error().Err(err).Str("reservation_token", token).Msg("failed to release slot")

		return fmt.Errorf("failed to release slot: %w", err)
	}

	s.notifyReleased(ctx, reservation, reason, used)

	return nil
}

func (s *serviceImpl) ReleaseExpired(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReleaseExpired")
	defer scope.End()
	defer scope.TraceIfError(err)

	released, err := s.reservations.ReleaseExpired(ctx, timezone.Now().UTC(), sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to release expired reservations")

		return 0, fmt.Errorf("failed to release expired reservations: %w", err)
	}

	for _, reservation := range released {
		start := reservation.StartTS.UTC()

		usage, err := s.dayUsage(ctx, reservation.UnitID, reservation.ServiceID, start, start.Add(time.Second))
		if err != nil {
			log.Warn().Err(err).Str("reservation_token", reservation.Token).Msg("failed to recount slot usage")
		}

		s.notifyReleased(ctx, reservation, model.ReleaseExpired, usage[start.Unix()])
	}

	return len(released), nil
}

// notifyReleased publishes slot.released. The template lookup is best-effort and falls back
// to the current usage as the total when no template matches any more.
func (s *serviceImpl) notifyReleased(ctx context.Context, reservation model.Reservation, reason model.ReleaseReason, used int) {
	capacity := max(used, 1)

	templates, err := s.templates.GetByWeekday(ctx, reservation.UnitID, reservation.ServiceID, int(reservation.StartTS.UTC().Weekday()))
	if err != nil {
		log.Warn().Err(err).Msg("failed to get slot templates for release event")
	} else if template, _, ok := slotModel.MatchSlot(templates, reservation.StartTS); ok {
		capacity = template.CapacityPerSlot
	}

	event.Notify(ctx, s.bus, s.cfg.PublishTimeout(), event.SlotReleased, event.SlotReleasedPayload{
		SlotUsage:        slotUsage(reservation, capacity, used),
		ReservationToken: reservation.Token,
		Reason:           string(reason),
	})
}

func slotUsage(reservation model.Reservation, capacity, used int) event.SlotUsage {
	start, end := reservation.StartTS.UTC(), reservation.EndTS.UTC()

	return event.SlotUsage{
		UnitID:        reservation.UnitID,
		ServiceID:     reservation.ServiceID,
		ResourceID:    reservation.ResourceID,
		Date:          start.Format(constant.DayFormat),
		StartTime:     start.Format(constant.ClockFormat),
		EndTime:       end.Format(constant.ClockFormat),
		CapacityTotal: capacity,
		CapacityUsed:  used,
	}
}
