package capacity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/infras/otel"
	"slotkeeper/shared/constant"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/timezone"
)

// NewAuthority returns the HTTP authority, or a permissive stub when no base URL is configured.
func NewAuthority(cfg *config.Config, otl otel.Otel) Authority {
	baseURL := strings.TrimRight(cfg.External.Capacity.BaseURL, "/")
	if baseURL == "" {
		log.Warn().Msg("No capacity authority configured, every reservation token will be accepted")

		return stubAuthority{}
	}

	return NewHTTPAuthority(baseURL, &http.Client{}, otl)
}

type httpAuthority struct {
	baseURL string
	client  *http.Client
	otel    otel.Otel
}

// NewHTTPAuthority expects GET {baseURL}/reservations/{token} to answer 200 with a Record or 404.
func NewHTTPAuthority(baseURL string, client *http.Client, otl otel.Otel) Authority {
	return &httpAuthority{
		baseURL: baseURL,
		client:  client,
		otel:    otl,
	}
}

func (a *httpAuthority) Lookup(ctx context.Context, token string) (rec Record, err error) {
	ctx, scope := a.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".capacity.Lookup")
	defer scope.End()
	defer scope.TraceIfError(err)

	endpoint := a.baseURL + "/reservations/" + url.PathEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return rec, fmt.Errorf("failed to build capacity request: %w", err)
	}

	req.Header.Set("Accept", constant.ContentTypeJSON)

	resp, err := a.client.Do(req)
	if err != nil {
		return rec, fmt.Errorf("failed to call capacity authority: %w", err)
	}
	defer resp.Body.Close()

	scope.SetAttribute("http.status_code", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return rec, failure.NotFound("reservation token not found") // nolint:wrapcheck
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return rec, fmt.Errorf("capacity authority responded with %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return rec, fmt.Errorf("failed to decode capacity response: %w", err)
	}

	rec.Token = token

	return rec, nil
}

type stubAuthority struct{}

func (stubAuthority) Lookup(_ context.Context, token string) (Record, error) {
	log.Warn().Str("token", token).Msg("Using stub capacity authority, accepting token")

	now := timezone.Now().UTC().Truncate(time.Second)

	return Record{
		Token:     token,
		UnitID:    "stub-unit",
		ServiceID: "stub-service",
		Start:     now,
		End:       now,
	}, nil
}
