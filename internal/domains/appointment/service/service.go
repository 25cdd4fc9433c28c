package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Appointment=MockAppointmentService

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/infras/capacity"
	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/internal/domains/appointment/model"
	"slotkeeper/internal/domains/appointment/model/dto"
	"slotkeeper/internal/domains/appointment/repository"
	availabilityModel "slotkeeper/internal/domains/availability/model"
	availabilityRepo "slotkeeper/internal/domains/availability/repository"
	availabilityService "slotkeeper/internal/domains/availability/service"
	idempotencyModel "slotkeeper/internal/domains/idempotency/model"
	idempotencyRepo "slotkeeper/internal/domains/idempotency/repository"
	"slotkeeper/shared"
	"slotkeeper/shared/cache"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/event"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/timezone"
)

var sortableFields = []string{model.FieldStartTS, constant.FieldCreatedAt}

type Appointment interface {
	// Create redeems a reservation token. replayed is true when the response was served
	// from a previous request made with the same idempotency key.
	Create(ctx context.Context, req dto.CreateAppointmentRequest, idempotencyKey string) (res dto.AppointmentResponse, replayed bool, err error)
	Get(ctx context.Context, id string) (dto.AppointmentResponse, error)
	List(ctx context.Context, params gDto.QueryParams, query dto.ListAppointmentsQuery) (dto.GetAppointmentsResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelAppointmentRequest) (dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, id, actorRole string) (dto.AppointmentResponse, error)
}

type serviceImpl struct {
	appointments repository.Appointment
	reservations availabilityRepo.Reservation
	idempotency  idempotencyRepo.Idempotency
	availability availabilityService.Availability
	validator    capacity.Validator
	tx           postgres.Transactor
	bus          event.Bus
	cache        cache.RedisCache
	cfg          *config.Config
	otel         otel.Otel
}

func New(
	appointments repository.Appointment,
	reservations availabilityRepo.Reservation,
	idempotency idempotencyRepo.Idempotency,
	availability availabilityService.Availability,
	validator capacity.Validator,
	tx postgres.Transactor,
	bus event.Bus,
	cache cache.RedisCache,
	cfg *config.Config,
	otel otel.Otel,
) Appointment {
	return &serviceImpl{
		appointments: appointments,
		reservations: reservations,
		idempotency:  idempotency,
		availability: availability,
		validator:    validator,
		tx:           tx,
		bus:          bus,
		cache:        cache,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAppointmentRequest, idempotencyKey string) (res dto.AppointmentResponse, replayed bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	now := timezone.Now().UTC()

	var (
		held    bool
		created model.Appointment
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if idempotencyKey != constant.Empty {
			record, err := s.idempotency.GetTx(ctx, tx, idempotencyKey, now)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if record.IsLive(now) {
				if err := json.Unmarshal(record.ResponseBody, &res); err != nil {
					return fmt.Errorf("failed to decode idempotent response: %w", err)
				}

				replayed = true

				return nil
			}
		}

		reservation, err := s.reservations.GetByTokenForUpdateTx(ctx, tx, req.ReservationToken)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if reservation.ID == constant.Empty {
			return failure.Conflict("reservation token not found or already consumed") // nolint:wrapcheck
		}

		if !reservation.IsRedeemable(now) {
			return failure.Conflict("reservation token expired or already confirmed") // nolint:wrapcheck
		}

		held = true

		if !reservation.StartTS.Equal(req.Start) || reservation.UnitID != req.UnitID || reservation.ServiceID != req.ServiceID {
			return failure.Validation("reservation slot mismatch") // nolint:wrapcheck
		}

		if _, err := s.validator.Validate(ctx, req.ReservationToken); err != nil {
			return err //nolint:wrapcheck
		}

		resourceID := req.ResourceID
		if resourceID == nil {
			resourceID = reservation.ResourceID
		}

		created, err = model.Schedule(model.ScheduleParams{
			ReservationID: &reservation.ID,
			ClientID:      req.ClientID,
			UnitID:        reservation.UnitID,
			ServiceID:     reservation.ServiceID,
			ResourceID:    resourceID,
			Start:         reservation.StartTS,
			End:           reservation.EndTS,
			Origin:        origin(req.Origin, role),
			Notes:         req.Notes,
			Actor:         actor,
		}, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if err := s.appointments.InsertTx(ctx, tx, created); err != nil {
			if postgres.IsUniqueViolation(err) {
				return failure.Conflict("reservation already redeemed") // nolint:wrapcheck
			}

			return err //nolint:wrapcheck
		}

		confirmed, err := s.reservations.ConfirmTx(ctx, tx, reservation.ID, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if confirmed != 1 {
			return failure.Conflict("reservation token expired or already confirmed") // nolint:wrapcheck
		}

		res.FromModel(created)
		res.ReservationToken = req.ReservationToken

		if idempotencyKey == constant.Empty {
			return nil
		}

		body, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to encode idempotent response: %w", err)
		}

		return s.idempotency.SaveTx(ctx, tx, idempotencyModel.Record{ //nolint:wrapcheck
			Key:          idempotencyKey,
			ResponseBody: body,
			CreatedAt:    now,
			ExpiresAt:    now.Add(s.cfg.IdempotencyTTL()),
		})
	})
	if err != nil {
		if held {
			s.releaseHeld(ctx, req.ReservationToken)
		}

		if failure.IsDomain(err) {
			return res, false, err
		}

		log.Error().Err(err).Str("reservation_token", req.ReservationToken).Msg("failed to create appointment")

		return res, false, failure.Conflict("failed to create appointment") // nolint:wrapcheck
	}

	if replayed {
		log.Info().Str("idempotency_key", idempotencyKey).Msg("replaying stored appointment response")

		return res, true, nil
	}

	event.Notify(ctx, s.bus, s.cfg.PublishTimeout(), event.AppointmentCreated, appointmentPayload(created, constant.Empty, role))

	return res, false, nil
}

// releaseHeld hands a reservation back to the pool after the redeeming transaction failed.
// The failed transaction rolled back, so the row is still locked.
func (s *serviceImpl) releaseHeld(ctx context.Context, token string) {
	err := s.availability.ReleaseSlot(context.WithoutCancel(ctx), token, availabilityModel.ReleaseManual)
	if err != nil {
		log.Warn().Err(err).Str("reservation_token", token).Msg("failed to release reservation after booking failure")
	}
}

func origin(requested, role string) model.Origin {
	if requested != constant.Empty {
		return model.Origin(requested)
	}

	if role == constant.Empty {
		return model.OriginClient
	}

	return model.Origin(role)
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(constant.CacheKeyAppointment, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointment")

		return res, nil
	}

	appointment, err := s.appointments.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment")

		return res, fmt.Errorf("failed to get appointment: %w", err)
	}

	if appointment.ID == constant.Empty {
		return res, failure.NotFound("appointment not found") // nolint:wrapcheck
	}

	res.FromModel(appointment)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointment to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) List(ctx context.Context, params gDto.QueryParams, query dto.ListAppointmentsQuery) (res dto.GetAppointmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".List")
	defer scope.End()
	defer scope.TraceIfError(err)

	params.Normalize(sortableFields, s.cfg.Booking.AppointmentListMaxSize)

	filter := query.ToFilter()

	total, err := s.appointments.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments")

		return res, fmt.Errorf("failed to count appointments: %w", err)
	}

	models, err := s.appointments.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointments")

		return res, fmt.Errorf("failed to get appointments: %w", err)
	}

	res.FromModels(models, total, params)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelAppointmentRequest) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	now := timezone.Now().UTC()

	var updated model.Appointment

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		updated, err = model.Cancel(current, req.Reason, actor, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if err := s.appointments.UpdateLifecycleTx(ctx, tx, updated); err != nil {
			return err //nolint:wrapcheck
		}

		if current.ReservationID == nil {
			return nil
		}

		_, err = s.reservations.ReleaseTx(ctx, tx, *current.ReservationID, availabilityModel.StatusConfirmed, availabilityModel.ReleaseCancelled, now)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return res, s.lifecycleError(err, "failed to cancel appointment")
	}

	s.afterLifecycle(ctx, updated, event.AppointmentCancelled, req.Reason, role)

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) MarkNoShow(ctx context.Context, id, actorRole string) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".MarkNoShow")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !model.CanMarkNoShow(actorRole) {
		return res, failure.Unauthorized("only staff can mark no-show") // nolint:wrapcheck
	}

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	now := timezone.Now().UTC()

	var updated model.Appointment

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		updated, err = model.MarkNoShow(current, actorRole, actor, now)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return s.appointments.UpdateLifecycleTx(ctx, tx, updated) //nolint:wrapcheck
	})
	if err != nil {
		return res, s.lifecycleError(err, "failed to mark appointment as no-show")
	}

	s.afterLifecycle(ctx, updated, event.AppointmentNoShow, constant.Empty, actorRole)

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) lockAppointment(ctx context.Context, tx *sqlx.Tx, id string) (model.Appointment, error) {
	current, err := s.appointments.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		return current, err //nolint:wrapcheck
	}

	if current.ID == constant.Empty {
		return current, failure.NotFound("appointment not found") // nolint:wrapcheck
	}

	return current, nil
}

func (s *serviceImpl) lifecycleError(err error, msg string) error {
	if failure.IsDomain(err) {
		return err
	}

	log.Error().Err(err).Msg(msg)

	return fmt.Errorf("%s: %w", msg, err)
}

// afterLifecycle drops the cached copy and publishes the lifecycle event.
func (s *serviceImpl) afterLifecycle(ctx context.Context, appointment model.Appointment, name, reason, role string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(constant.CacheKeyAppointment, appointment.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete appointment from cache")
		}
	}()

	event.Notify(ctx, s.bus, s.cfg.PublishTimeout(), name, appointmentPayload(appointment, reason, role))
}

func appointmentPayload(appointment model.Appointment, reason, role string) event.AppointmentPayload {
	return event.AppointmentPayload{
		AppointmentID: appointment.ID,
		ReservationID: appointment.ReservationID,
		ClientID:      appointment.ClientID,
		UnitID:        appointment.UnitID,
		ServiceID:     appointment.ServiceID,
		ResourceID:    appointment.ResourceID,
		Start:         appointment.StartTS.UTC().Format(time.RFC3339),
		End:           appointment.EndTS.UTC().Format(time.RFC3339),
		Status:        string(appointment.Status),
		Origin:        string(appointment.Origin),
		Reason:        reason,
		ActorRole:     role,
	}
}
