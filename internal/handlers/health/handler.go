package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"slotkeeper/infras/capacity"
	"slotkeeper/infras/otel"
	"slotkeeper/shared/constant"
	"slotkeeper/transport/http/response"
)

type Status struct {
	Status   capacity.Status `json:"status"`
	Capacity capacity.Health `json:"capacity_authority"`
}

type Handler struct {
	validator capacity.Validator
	otel      otel.Otel
}

func New(validator capacity.Validator, otel otel.Otel) Handler {
	return Handler{
		validator: validator,
		otel:      otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/health", handler.GetHealth)
}

// GetHealth reports process health and the state of the capacity authority breaker.
// An open breaker degrades the process but does not fail it, since cached tokens still book.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} Status
// @Failure 503 {object} response.Error
// @Router /v1/health [get]
func (handler *Handler) GetHealth(writer http.ResponseWriter, request *http.Request) {
	_, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHealth")
	defer scope.End()

	authority := handler.validator.Health()

	status := capacity.StatusOK
	if authority.Status != capacity.StatusOK {
		status = capacity.StatusDegraded
	}

	scope.SetAttributes(map[string]any{
		"health.status":        string(status),
		"health.breaker_state": authority.BreakerState,
	})

	response.WithJSON(writer, http.StatusOK, Status{Status: status, Capacity: authority})
}
