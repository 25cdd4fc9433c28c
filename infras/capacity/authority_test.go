package capacity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/config"
	"slotkeeper/infras/capacity"
	"slotkeeper/infras/otel/mocks"
	"slotkeeper/shared/failure"
)

func TestHTTPAuthority_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reservations/resv_ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"unit_id":"u1","service_id":"s1","resource_id":null,"start":"2025-12-01T10:00:00Z","end":"2025-12-01T10:30:00Z"}`))
		case "/reservations/resv_broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/reservations/resv_garbage":
			_, _ = w.Write([]byte(`{`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	authority := capacity.NewHTTPAuthority(server.URL, server.Client(), mocks.NewOtel())
	ctx := context.Background()

	rec, err := authority.Lookup(ctx, "resv_ok")
	require.NoError(t, err)
	assert.Equal(t, "resv_ok", rec.Token)
	assert.Equal(t, "u1", rec.UnitID)
	assert.Nil(t, rec.ResourceID)
	assert.True(t, rec.Start.Equal(time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)))

	_, err = authority.Lookup(ctx, "resv_missing")
	assert.True(t, failure.IsNotFound(err))

	_, err = authority.Lookup(ctx, "resv_broken")
	assert.Error(t, err)
	assert.False(t, failure.IsDomain(err))

	_, err = authority.Lookup(ctx, "resv_garbage")
	assert.Error(t, err)
}

func TestHTTPAuthority_EndToEndThroughValidator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	authority := capacity.NewHTTPAuthority(server.URL, server.Client(), mocks.NewOtel())
	v := newValidator(t, authority, fastSettings())

	_, err := v.Validate(context.Background(), "missing-token")

	assert.True(t, failure.IsNotFound(err))
}

func TestNewAuthority_StubWithoutBaseURL(t *testing.T) {
	authority := capacity.NewAuthority(&config.Config{}, mocks.NewOtel())

	rec, err := authority.Lookup(context.Background(), "resv_any")

	require.NoError(t, err)
	assert.Equal(t, "resv_any", rec.Token)
	assert.Equal(t, "stub-unit", rec.UnitID)
}
