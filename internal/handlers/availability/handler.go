package availability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"slotkeeper/infras/otel"
	"slotkeeper/internal/domains/availability/model/dto"
	"slotkeeper/internal/domains/availability/service"
	"slotkeeper/shared/constant"
	"slotkeeper/shared/validator"
	"slotkeeper/transport/http/response"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/units/{unitID}/availability", handler.ListAvailability)

	router.Route("/slots", func(routerGroup chi.Router) {
		routerGroup.Post("/lock", handler.LockSlot)
		routerGroup.Post("/release", handler.ReleaseSlot)
	})
}

// ListAvailability lists the generated slots of one day with their remaining capacity.
// @Summary List slot availability
// @Description Point-in-time availability for a unit and service on a UTC date. A listed slot may be taken before it is locked.
// @Tags Availability
// @Produce json
// @Param unitID path string true "Unit ID"
// @Param service_id query string true "Service ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.ListAvailabilityResponse
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/units/{unitID}/availability [get]
// @Security BearerAuth
func (handler *Handler) ListAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ListAvailability")
	defer scope.End()

	req := dto.ListAvailabilityRequest{
		UnitID:    chi.URLParam(request, constant.RequestParamUnitID),
		ServiceID: request.URL.Query().Get(constant.RequestParamServiceID),
		Date:      request.URL.Query().Get(constant.RequestParamDate),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate availability query")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.ListAvailability(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// LockSlot places a short-lived reservation on one seat of a slot.
// @Summary Lock a slot
// @Description Reserve capacity for a published slot. The returned token expires unless redeemed by creating an appointment.
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body dto.LockSlotRequest true "Lock Slot Request"
// @Success 201 {object} dto.LockSlotResponse
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/slots/lock [post]
// @Security BearerAuth
func (handler *Handler) LockSlot(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".LockSlot")
	defer scope.End()

	req := dto.LockSlotRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.LockSlot(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to lock slot")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Slot locked with token " + res.ReservationToken)

	response.WithJSON(writer, http.StatusCreated, res)
}

// ReleaseSlot gives a locked reservation back.
// @Summary Release a slot
// @Tags Availability
// @Accept json
// @Param request body dto.ReleaseSlotRequest true "Release Slot Request"
// @Success 204
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/slots/release [post]
// @Security BearerAuth
func (handler *Handler) ReleaseSlot(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReleaseSlot")
	defer scope.End()

	req := dto.ReleaseSlotRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.ReleaseSlot(ctx, req.ReservationToken, req.ReleaseReason()); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to release slot")

		response.WithError(writer, err)

		return
	}

	writer.WriteHeader(http.StatusNoContent)
}
