package appointment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"slotkeeper/infras/otel"
	"slotkeeper/internal/domains/appointment/model/dto"
	"slotkeeper/internal/domains/appointment/service"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/validator"
	"slotkeeper/transport/http/response"
)

type Handler struct {
	service service.Appointment
	otel    otel.Otel
}

func New(service service.Appointment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/appointments", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateAppointment)
		routerGroup.Get("/", handler.GetAppointments)
		routerGroup.Get("/{id}", handler.GetAppointmentByID)
		routerGroup.Put("/{id}/cancel", handler.CancelAppointment)
		routerGroup.Put("/{id}/no-show", handler.MarkNoShow)
	})
}

// requestLogger tags log lines with the reservation token the caller is working with, if any.
func requestLogger(request *http.Request) zerolog.Logger {
	token := request.Header.Get(constant.RequestHeaderReservationToken)
	if token == constant.Empty {
		return log.Logger
	}

	return log.With().Str("reservation_token", token).Logger()
}

// CreateAppointment redeems a reservation token into a scheduled appointment.
// @Summary Create an appointment
// @Description Redeem a locked reservation. Repeating a request with the same Idempotency-Key returns the stored response with Idempotent-Replayed set.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} dto.AppointmentResponse
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/appointments [post]
// @Security BearerAuth
func (handler *Handler) CreateAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateAppointment")
	defer scope.End()

	logger := requestLogger(request)
	req := dto.CreateAppointmentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	idempotencyKey := request.Header.Get(constant.RequestHeaderIdempotencyKey)

	res, replayed, err := handler.service.Create(ctx, req, idempotencyKey)
	if err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Msg("failed to create appointment")

		response.WithError(writer, err)

		return
	}

	if idempotencyKey != constant.Empty {
		writer.Header().Set(constant.RequestHeaderIdempotentReplay, strconv.FormatBool(replayed))
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Appointment " + res.ID + " created by user " + user)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetAppointments lists appointments page by page.
// @Summary List appointments
// @Tags Appointment
// @Produce json
// @Param client_id query string false "Filter by client"
// @Param resource_id query string false "Filter by resource"
// @Param unit_id query string false "Filter by unit"
// @Param date query string false "Filter by UTC day (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort_by query string false "start_ts or created_at"
// @Param sort_dir query string false "ASC or DESC"
// @Success 200 {object} dto.GetAppointmentsResponse
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/appointments [get]
// @Security BearerAuth
func (handler *Handler) GetAppointments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAppointments")
	defer scope.End()

	logger := requestLogger(request)

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	values := request.URL.Query()
	query := dto.ListAppointmentsQuery{
		ClientID:   values.Get(constant.RequestParamClientID),
		ResourceID: values.Get(constant.RequestParamResourceID),
		UnitID:     values.Get("unit_id"),
		Date:       values.Get(constant.RequestParamDate),
	}

	if err := validator.ValidateStruct(&query); err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Msg("failed to validate appointment query")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.List(ctx, queryParams, query)
	if err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Msg("failed to list appointments")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetAppointmentByID retrieves one appointment.
// @Summary Get an appointment by ID
// @Tags Appointment
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/appointments/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetAppointmentByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAppointmentByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		logger := requestLogger(request)
		logger.Error().Err(err).Str("appointment_id", id).Msg("failed to get appointment")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// CancelAppointment cancels a scheduled appointment and frees its slot.
// @Summary Cancel an appointment
// @Tags Appointment
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.CancelAppointmentRequest true "Cancel Appointment Request"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/appointments/{id}/cancel [put]
// @Security BearerAuth
func (handler *Handler) CancelAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelAppointment")
	defer scope.End()

	logger := requestLogger(request)
	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CancelAppointmentRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Cancel(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		logger.Error().Err(err).Str("appointment_id", id).Msg("failed to cancel appointment")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// MarkNoShow records that the client did not attend. The actor role comes from the access token.
// @Summary Mark an appointment as no-show
// @Tags Appointment
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/appointments/{id}/no-show [put]
// @Security BearerAuth
func (handler *Handler) MarkNoShow(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".MarkNoShow")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	res, err := handler.service.MarkNoShow(ctx, id, role)
	if err != nil {
		scope.TraceError(err)
		logger := requestLogger(request)
		logger.Error().Err(err).Str("appointment_id", id).Msg("failed to mark appointment as no-show")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
