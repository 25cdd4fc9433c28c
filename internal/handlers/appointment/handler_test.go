package appointment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	otelMocks "slotkeeper/infras/otel/mocks"
	"slotkeeper/internal/domains/appointment/mocks"
	"slotkeeper/internal/domains/appointment/model/dto"
	"slotkeeper/internal/handlers/appointment"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/failure"
)

const validToken = "resv_0b8f3c1e-8d0f-4a53-9d6e-2f1a7c5b9e11"

func newRouter(t *testing.T) (*mocks.MockAppointmentService, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockAppointmentService(ctrl)

	handler := appointment.New(svc, otelMocks.NewOtel())
	router := chi.NewRouter()
	handler.Router(router)

	return svc, router
}

type call struct {
	method  string
	target  string
	body    string
	headers map[string]string
	role    string
}

func serve(router http.Handler, c call) *httptest.ResponseRecorder {
	request := httptest.NewRequest(c.method, c.target, strings.NewReader(c.body))
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	if c.role != "" {
		request = request.WithContext(context.WithValue(request.Context(), constant.ContextKeyUserRole, c.role))
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func createBody() string {
	return `{"reservation_token":"` + validToken + `","client_id":"client-1","unit_id":"unit-1","service_id":"svc-1","start":"2025-03-03T09:00:00Z"}`
}

func TestCreateAppointment(t *testing.T) {
	created := dto.AppointmentResponse{ID: "appt-1", Status: "scheduled", ReservationToken: validToken}

	tests := []struct {
		name         string
		call         call
		mock         func(svc *mocks.MockAppointmentService)
		wantCode     int
		wantReplayed string
	}{
		{
			name: "created without key",
			call: call{method: http.MethodPost, target: "/appointments", body: createBody()},
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any(), "").Return(created, false, nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "first use of key",
			call: call{
				method: http.MethodPost, target: "/appointments", body: createBody(),
				headers: map[string]string{constant.RequestHeaderIdempotencyKey: "key-1"},
			},
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any(), "key-1").Return(created, false, nil)
			},
			wantCode:     http.StatusCreated,
			wantReplayed: "false",
		},
		{
			name: "replayed key",
			call: call{
				method: http.MethodPost, target: "/appointments", body: createBody(),
				headers: map[string]string{
					constant.RequestHeaderIdempotencyKey:   "key-1",
					constant.RequestHeaderReservationToken: validToken,
				},
			},
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any(), "key-1").Return(created, true, nil)
			},
			wantCode:     http.StatusCreated,
			wantReplayed: "true",
		},
		{
			name: "token already redeemed",
			call: call{method: http.MethodPost, target: "/appointments", body: createBody()},
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any(), "").Return(dto.AppointmentResponse{}, false, failure.Conflict("reservation already used"))
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "unknown token",
			call: call{method: http.MethodPost, target: "/appointments", body: createBody()},
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any(), "").Return(dto.AppointmentResponse{}, false, failure.NotFound("reservation not found"))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing client",
			call:     call{method: http.MethodPost, target: "/appointments", body: `{"reservation_token":"` + validToken + `"}`},
			mock:     func(*mocks.MockAppointmentService) {},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.mock(svc)

			rec := serve(router, tt.call)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantReplayed, rec.Header().Get(constant.RequestHeaderIdempotentReplay))

			if tt.wantCode == http.StatusCreated {
				var body struct {
					Data dto.AppointmentResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "appt-1", body.Data.ID)
			}
		})
	}
}

func TestGetAppointmentByID(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Get(gomock.Any(), "appt-1").Return(dto.AppointmentResponse{ID: "appt-1"}, nil)
	svc.EXPECT().Get(gomock.Any(), "missing").Return(dto.AppointmentResponse{}, failure.NotFound("appointment not found"))

	assert.Equal(t, http.StatusOK, serve(router, call{method: http.MethodGet, target: "/appointments/appt-1"}).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, call{method: http.MethodGet, target: "/appointments/missing"}).Code)
}

func TestGetAppointments(t *testing.T) {
	t.Run("filters and paging", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().
			List(gomock.Any(), gDto.QueryParams{Page: 2, Limit: 5, SortBy: "created_at", SortDir: "DESC"}, dto.ListAppointmentsQuery{
				ClientID: "client-1", UnitID: "unit-1", Date: "2025-03-03",
			}).
			Return(dto.GetAppointmentsResponse{Page: 2, Limit: 5, TotalData: 7, TotalPage: 2}, nil)

		rec := serve(router, call{
			method: http.MethodGet,
			target: "/appointments?client_id=client-1&unit_id=unit-1&date=2025-03-03&page=2&limit=5&sort_by=created_at&sort_dir=desc",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data dto.GetAppointmentsResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 7, body.Data.TotalData)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, router := newRouter(t)

		rec := serve(router, call{method: http.MethodGet, target: "/appointments?date=yesterday"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestCancelAppointment(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		mock     func(svc *mocks.MockAppointmentService)
		wantCode int
	}{
		{
			name: "cancelled",
			body: `{"reason":"client request"}`,
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().
					Cancel(gomock.Any(), "appt-1", dto.CancelAppointmentRequest{Reason: "client request"}).
					Return(dto.AppointmentResponse{ID: "appt-1", Status: "cancelled"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "terminal state",
			body: `{"reason":"client request"}`,
			mock: func(svc *mocks.MockAppointmentService) {
				svc.EXPECT().
					Cancel(gomock.Any(), "appt-1", gomock.Any()).
					Return(dto.AppointmentResponse{}, failure.Validation("cannot cancel a no-show appointment"))
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing reason",
			body:     `{}`,
			mock:     func(*mocks.MockAppointmentService) {},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.mock(svc)

			rec := serve(router, call{method: http.MethodPut, target: "/appointments/appt-1/cancel", body: tt.body})

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestMarkNoShow_UsesRoleFromContext(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		err      error
		wantCode int
	}{
		{"staff", constant.RoleStaff, nil, http.StatusOK},
		{"client", constant.RoleClient, failure.Unauthorized("only staff can mark a no-show"), http.StatusUnauthorized},
		{"anonymous", "", failure.Unauthorized("only staff can mark a no-show"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)

			svc.EXPECT().MarkNoShow(gomock.Any(), "appt-1", tt.role).Return(dto.AppointmentResponse{ID: "appt-1"}, tt.err)

			rec := serve(router, call{method: http.MethodPut, target: "/appointments/appt-1/no-show", role: tt.role})

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
