package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"slotkeeper/config"
	"slotkeeper/infras/capacity"
	capacityMocks "slotkeeper/infras/capacity/mocks"
	"slotkeeper/infras/jwt"
	otelMocks "slotkeeper/infras/otel/mocks"
	appointmentMocks "slotkeeper/internal/domains/appointment/mocks"
	appointmentDto "slotkeeper/internal/domains/appointment/model/dto"
	availabilityMocks "slotkeeper/internal/domains/availability/mocks"
	availabilityDto "slotkeeper/internal/domains/availability/model/dto"
	appointmentHandler "slotkeeper/internal/handlers/appointment"
	availabilityHandler "slotkeeper/internal/handlers/availability"
	healthHandler "slotkeeper/internal/handlers/health"
	"slotkeeper/permissions"
	cacheMocks "slotkeeper/shared/cache/mocks"
	"slotkeeper/shared/constant"
	transport "slotkeeper/transport/http"
	"slotkeeper/transport/http/middleware"
	"slotkeeper/transport/http/router"
)

const (
	secret = "test-secret"
	apiKey = "internal-key"
)

type stack struct {
	server       *transport.HTTP
	availability *availabilityMocks.MockAvailability
	appointment  *appointmentMocks.MockAppointmentService
	validator    *capacityMocks.MockValidator
	cache        *cacheMocks.MockRedisCache
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "slotkeeper"
	cfg.App.APIKey = apiKey
	cfg.JWT.AccessSecret = secret
	cfg.Server.Env = constant.ServerEnvDevelopment
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"

	return cfg
}

func newStack(t *testing.T, cfg *config.Config) stack {
	t.Helper()

	ctrl := gomock.NewController(t)
	otl := otelMocks.NewOtel()

	s := stack{
		availability: availabilityMocks.NewMockAvailability(ctrl),
		appointment:  appointmentMocks.NewMockAppointmentService(ctrl),
		validator:    capacityMocks.NewMockValidator(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
	}

	perms, err := permissions.Get()
	require.NoError(t, err)

	r := router.New(router.DomainHandlers{
		Availability: availabilityHandler.New(s.availability, otl),
		Appointment:  appointmentHandler.New(s.appointment, otl),
		Health:       healthHandler.New(s.validator, otl),
	})

	s.server = transport.New(cfg, r,
		middleware.NewAppMiddleware(otl, cfg, s.cache),
		middleware.NewAuthRoleMiddleware(jwt.New(cfg), otl, perms, cfg),
	)

	return s
}

func bearer(t *testing.T, role string) string {
	t.Helper()

	claims := jwt.Claims{
		UserID:  "user-1",
		Role:    role,
		TokenID: "token-1",
		Type:    jwt.AccessToken,
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return "Bearer " + token
}

func do(s stack, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(recorder, request)

	return recorder
}

func TestHTTP_HealthSkipsAuth(t *testing.T) {
	s := newStack(t, testConfig())

	s.validator.EXPECT().Health().Return(capacity.Health{Status: capacity.StatusDown, BreakerState: "open"})

	rec := do(s, http.MethodGet, "/v1/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"breaker_state":"open"`)
}

func TestHTTP_Authentication(t *testing.T) {
	tests := []struct {
		name     string
		headers  func(t *testing.T) map[string]string
		expect   func(s stack)
		wantCode int
	}{
		{
			name:     "missing token",
			headers:  func(*testing.T) map[string]string { return nil },
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "malformed header",
			headers: func(*testing.T) map[string]string {
				return map[string]string{constant.RequestHeaderAuthorization: "Token abc"}
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "client token",
			headers: func(t *testing.T) map[string]string {
				return map[string]string{constant.RequestHeaderAuthorization: bearer(t, constant.RoleClient)}
			},
			expect: func(s stack) {
				s.availability.EXPECT().ListAvailability(gomock.Any(), gomock.Any()).Return(availabilityDto.ListAvailabilityResponse{}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "wrong api key",
			headers: func(*testing.T) map[string]string {
				return map[string]string{constant.RequestHeaderAPIKey: "guess"}
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "internal api key",
			headers: func(*testing.T) map[string]string {
				return map[string]string{constant.RequestHeaderAPIKey: apiKey}
			},
			expect: func(s stack) {
				s.availability.EXPECT().ListAvailability(gomock.Any(), gomock.Any()).Return(availabilityDto.ListAvailabilityResponse{}, nil)
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t, testConfig())
			if tt.expect != nil {
				tt.expect(s)
			}

			rec := do(s, http.MethodGet, "/v1/units/unit-1/availability?service_id=svc-1&date=2025-03-03", tt.headers(t))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHTTP_RoleAccess(t *testing.T) {
	t.Run("client cannot list appointments", func(t *testing.T) {
		s := newStack(t, testConfig())

		rec := do(s, http.MethodGet, "/v1/appointments", map[string]string{
			constant.RequestHeaderAuthorization: bearer(t, constant.RoleClient),
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff lists appointments", func(t *testing.T) {
		s := newStack(t, testConfig())

		s.appointment.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(appointmentDto.GetAppointmentsResponse{}, nil)

		rec := do(s, http.MethodGet, "/v1/appointments", map[string]string{
			constant.RequestHeaderAuthorization: bearer(t, constant.RoleStaff),
		})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no-show receives the token role", func(t *testing.T) {
		s := newStack(t, testConfig())

		s.appointment.EXPECT().MarkNoShow(gomock.Any(), "appt-1", constant.RoleStaff).Return(appointmentDto.AppointmentResponse{ID: "appt-1"}, nil)

		rec := do(s, http.MethodPut, "/v1/appointments/appt-1/no-show", map[string]string{
			constant.RequestHeaderAuthorization: bearer(t, constant.RoleStaff),
		})

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHTTP_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.App.RateLimiter.Enable = true
	cfg.App.RateLimiter.MaxRequests = 1
	cfg.App.RateLimiter.WindowSeconds = 60

	s := newStack(t, cfg)

	gomock.InOrder(
		s.cache.EXPECT().Increment(gomock.Any(), gomock.Any(), time.Minute).Return(int64(1), nil),
		s.cache.EXPECT().Increment(gomock.Any(), gomock.Any(), time.Minute).Return(int64(2), nil),
	)
	s.validator.EXPECT().Health().Return(capacity.Health{Status: capacity.StatusOK})

	first := do(s, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get(constant.RequestHeaderRateLimitRemaining))

	second := do(s, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHTTP_ServeStopsOnCancel(t *testing.T) {
	s := newStack(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.server.Serve(ctx)
	}()

	assert.Equal(t, transport.ServerStateReady, s.server.State())

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTP_DrainsHealthDuringGracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Env = constant.ServerEnvProduction
	cfg.Server.Shutdown.GracePeriodSeconds = 1
	cfg.Server.Shutdown.CleanupPeriodSeconds = 1

	s := newStack(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.server.Serve(ctx)
	}()

	cancel()

	require.Eventually(t, func() bool {
		return s.server.State() == transport.ServerStateInGracePeriod
	}, time.Second, 10*time.Millisecond)

	rec := do(s, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, transport.ServerStateInCleanupPeriod, s.server.State())
}
