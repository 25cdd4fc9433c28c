package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"slotkeeper/infras/capacity"
	"slotkeeper/infras/capacity/mocks"
	otelMocks "slotkeeper/infras/otel/mocks"
	"slotkeeper/internal/handlers/health"
)

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name      string
		authority capacity.Health
		want      capacity.Status
	}{
		{"breaker closed", capacity.Health{Status: capacity.StatusOK, BreakerState: "closed"}, capacity.StatusOK},
		{"breaker half open", capacity.Health{Status: capacity.StatusDegraded, BreakerState: "half-open"}, capacity.StatusDegraded},
		{"breaker open", capacity.Health{Status: capacity.StatusDown, BreakerState: "open", FailureReason: "timeout"}, capacity.StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			validator := mocks.NewMockValidator(ctrl)
			validator.EXPECT().Health().Return(tt.authority)

			handler := health.New(validator, otelMocks.NewOtel())
			router := chi.NewRouter()
			handler.Router(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Data health.Status `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Data.Status)
			assert.Equal(t, tt.authority.BreakerState, body.Data.Capacity.BreakerState)
			assert.Equal(t, tt.authority.FailureReason, body.Data.Capacity.FailureReason)
		})
	}
}
