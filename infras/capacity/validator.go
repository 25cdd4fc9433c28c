package capacity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"slotkeeper/config"
	"slotkeeper/infras/otel"
	"slotkeeper/shared/constant"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/timezone"
)

const (
	breakerName   = "capacity-authority"
	cacheCapacity = 50_000
)

type Settings struct {
	Timeout          time.Duration
	MaxRetries       int
	BaseDelay        time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
	CacheTTL         time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	c := cfg.External.Capacity

	return Settings{
		Timeout:          time.Duration(c.TimeoutMillis) * time.Millisecond,
		MaxRetries:       c.MaxRetries,
		BaseDelay:        time.Duration(c.BaseDelayMillis) * time.Millisecond,
		FailureThreshold: c.FailureThreshold,
		ResetTimeout:     time.Duration(c.ResetTimeoutMs) * time.Millisecond,
		CacheTTL:         cfg.ReservationTTL(),
	}
}

type validator struct {
	authority Authority
	settings  Settings
	breaker   *gobreaker.CircuitBreaker[Record]
	cache     *ttlcache.Cache[string, Record]
	otel      otel.Otel

	mu            sync.Mutex
	lastFailureAt *time.Time
	failureReason string
}

// NewValidator owns one breaker and one cache. The returned cleanup stops cache eviction.
func NewValidator(authority Authority, settings Settings, otl otel.Otel) (Validator, func()) {
	v := &validator{
		authority: authority,
		settings:  settings,
		otel:      otl,
		cache: ttlcache.New[string, Record](
			ttlcache.WithTTL[string, Record](settings.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, Record](),
			ttlcache.WithCapacity[string, Record](cacheCapacity),
		),
	}

	v.breaker = gobreaker.NewCircuitBreaker[Record](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     settings.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(max(settings.FailureThreshold, 1)) //nolint:gosec
		},
		// the authority answering "unknown token" is a healthy response
		IsSuccessful: func(err error) bool {
			return err == nil || failure.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("capacity breaker state changed")
		},
	})

	go v.cache.Start()

	return v, v.cache.Stop
}

// NewValidatorFromConfig wires the configured authority behind a validator.
func NewValidatorFromConfig(cfg *config.Config, otl otel.Otel) (Validator, func()) {
	return NewValidator(NewAuthority(cfg, otl), SettingsFromConfig(cfg), otl)
}

func (v *validator) Validate(ctx context.Context, token string) (rec Record, err error) {
	ctx, scope := v.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".capacity.Validate")
	defer scope.End()
	defer scope.TraceIfError(err)

	rec, err = v.breaker.Execute(func() (Record, error) {
		return v.lookupWithRetry(ctx, token)
	})

	scope.SetAttribute("breaker.state", v.breaker.State().String())

	switch {
	case err == nil:
		v.recordSuccess()
		v.cache.Set(token, rec, ttlcache.DefaultTTL)

		return rec, nil
	case failure.IsNotFound(err):
		v.cache.Delete(token)

		return Record{}, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		if cached := v.cache.Get(token); cached != nil {
			log.Warn().Str("token", token).Msg("capacity breaker open, serving cached validation")

			return cached.Value(), nil
		}

		return Record{}, failure.Conflict("capacity authority unavailable") // nolint:wrapcheck
	}

	v.recordFailure(err)

	if cached := v.cache.Get(token); cached != nil {
		log.Warn().Err(err).Str("token", token).Msg("capacity authority failed, serving cached validation")

		return cached.Value(), nil
	}

	log.Error().Err(err).Str("token", token).Msg("failed to validate reservation token")

	return Record{}, failure.Conflict("failed to validate reservation token") // nolint:wrapcheck
}

func (v *validator) lookupWithRetry(ctx context.Context, token string) (Record, error) {
	rec, err := backoff.Retry(ctx, func() (Record, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, v.settings.Timeout)
		defer cancel()

		rec, err := v.authority.Lookup(attemptCtx, token)
		if failure.IsNotFound(err) {
			return rec, backoff.Permanent(err)
		}

		return rec, err
	},
		backoff.WithBackOff(&quadraticBackOff{base: v.settings.BaseDelay}),
		backoff.WithMaxTries(uint(max(v.settings.MaxRetries, 1))), //nolint:gosec
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return rec, permanent.Err
	}

	return rec, err //nolint:wrapcheck
}

func (v *validator) Health() Health {
	state := v.breaker.State()

	health := Health{BreakerState: state.String()}

	switch state {
	case gobreaker.StateClosed:
		health.Status = StatusOK
	case gobreaker.StateHalfOpen:
		health.Status = StatusDegraded
	default:
		health.Status = StatusDown
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	health.LastFailureAt = v.lastFailureAt
	health.FailureReason = v.failureReason

	return health
}

func (v *validator) recordFailure(err error) {
	now := timezone.Now()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.lastFailureAt = &now
	v.failureReason = err.Error()
}

func (v *validator) recordSuccess() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.lastFailureAt = nil
	v.failureReason = ""
}

// quadraticBackOff waits base*n² before the (n+1)th attempt.
type quadraticBackOff struct {
	base    time.Duration
	attempt int
}

func (b *quadraticBackOff) NextBackOff() time.Duration {
	b.attempt++

	return b.base * time.Duration(b.attempt*b.attempt)
}

func (b *quadraticBackOff) Reset() {
	b.attempt = 0
}
