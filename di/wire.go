//go:build wireinject
// +build wireinject

package di

import (
	"slotkeeper/config"
	"slotkeeper/infras/capacity"
	"slotkeeper/infras/jwt"
	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/infras/redis"
	"slotkeeper/permissions"
	"slotkeeper/shared/cache"
	"slotkeeper/shared/event"
	"slotkeeper/transport/http"
	"slotkeeper/transport/http/middleware"
	"slotkeeper/transport/http/router"

	appointmentRepository "slotkeeper/internal/domains/appointment/repository"
	appointmentService "slotkeeper/internal/domains/appointment/service"
	availabilityRepository "slotkeeper/internal/domains/availability/repository"
	availabilityService "slotkeeper/internal/domains/availability/service"
	idempotencyRepository "slotkeeper/internal/domains/idempotency/repository"
	slotRepository "slotkeeper/internal/domains/slot/repository"
	appointmentHandler "slotkeeper/internal/handlers/appointment"
	availabilityHandler "slotkeeper/internal/handlers/availability"
	healthHandler "slotkeeper/internal/handlers/health"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	wire.Bind(new(postgres.Transactor), new(*postgres.Connection)),
	otel.New,
	redis.New,
	jwt.New,
	capacity.NewValidatorFromConfig,
	event.New,
	permissions.Get,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var availabilityDomain = wire.NewSet(
	slotRepository.New,
	availabilityRepository.New,
	availabilityService.New,
	availabilityService.NewSweeper,
)

var appointmentDomain = wire.NewSet(
	appointmentRepository.New,
	idempotencyRepository.New,
	appointmentService.New,
)

var domains = wire.NewSet(
	availabilityDomain,
	appointmentDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	availabilityHandler.New,
	appointmentHandler.New,
	healthHandler.New,
	router.New,
)

func InitializeApp() (*App, func(), error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return nil, nil, nil
}
