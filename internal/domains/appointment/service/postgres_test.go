package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	otelMocks "slotkeeper/infras/otel/mocks"
	"slotkeeper/internal/domains/appointment/model/dto"
	appointmentRepo "slotkeeper/internal/domains/appointment/repository"
	"slotkeeper/internal/domains/appointment/service"
	availabilityDto "slotkeeper/internal/domains/availability/model/dto"
	availabilityRepo "slotkeeper/internal/domains/availability/repository"
	availabilityService "slotkeeper/internal/domains/availability/service"
	idempotencyRepo "slotkeeper/internal/domains/idempotency/repository"
	slotRepo "slotkeeper/internal/domains/slot/repository"
	"slotkeeper/internal/testutil/pgtest"
	"slotkeeper/shared/cache"
	"slotkeeper/shared/event"
	"slotkeeper/shared/failure"
)

type pgScenario struct {
	svc          service.Appointment
	availability availabilityService.Availability
}

func newPostgresScenario(t *testing.T, capacity int) pgScenario {
	t.Helper()

	conn := pgtest.Connect(t)

	template := slotTemplate()
	template.ID = uuid.NewString()
	template.CapacityPerSlot = capacity
	pgtest.SeedTemplates(t, conn, template)

	otl := otelMocks.NewOtel()
	cfg := testConfig()
	bus := event.NewMemory()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reservations := availabilityRepo.New(conn, otl)
	appointments := appointmentRepo.New(conn, otl)

	availability := availabilityService.New(slotRepo.New(conn, otl), reservations, appointments, conn, bus, cfg, otl)

	return pgScenario{
		availability: availability,
		svc: service.New(
			appointments,
			reservations,
			idempotencyRepo.New(conn, otl),
			availability,
			permissiveValidator(gomock.NewController(t)),
			conn,
			bus,
			cache.NewRedisCache(client, otl),
			cfg,
			otl,
		),
	}
}

func (s pgScenario) lockNine(ctx context.Context) (availabilityDto.LockSlotResponse, error) {
	return s.availability.LockSlot(ctx, availabilityDto.LockSlotRequest{
		UnitID:    "unit-1",
		ServiceID: "svc-1",
		Start:     nineAM,
		End:       nineAM.Add(30 * time.Minute),
	})
}

func TestPostgres_ConcurrentLocksStopAtCapacity(t *testing.T) {
	sc := newPostgresScenario(t, 3)

	const callers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		conflicts int
	)

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := sc.lockNine(context.Background())

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				won++
			case failure.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 3, won)
	assert.Equal(t, callers-3, conflicts)
}

func TestPostgres_TokenRedeemsOnce(t *testing.T) {
	sc := newPostgresScenario(t, 1)

	lock, err := sc.lockNine(context.Background())
	require.NoError(t, err)

	const callers = 6

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners = map[string]string{}
	)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := "key-" + strconv.Itoa(i)

			res, _, err := sc.svc.Create(clientCtx(), createReq(lock.ReservationToken), key)
			if err != nil {
				assert.True(t, failure.IsConflict(err), "caller %d: %v", i, err)

				return
			}

			mu.Lock()
			defer mu.Unlock()

			winners[key] = res.ID
		}()
	}

	wg.Wait()

	require.Len(t, winners, 1)

	for key, id := range winners {
		replay, replayed, err := sc.svc.Create(clientCtx(), createReq(lock.ReservationToken), key)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, id, replay.ID)
	}

	slots, err := sc.availability.ListAvailability(context.Background(), availabilityDto.ListAvailabilityRequest{
		UnitID: "unit-1", ServiceID: "svc-1", Date: "2025-03-03",
	})
	require.NoError(t, err)
	assert.False(t, slots.Slots[0].Available)
}

func TestPostgres_CancelFreesTheSlot(t *testing.T) {
	sc := newPostgresScenario(t, 1)

	lock, err := sc.lockNine(context.Background())
	require.NoError(t, err)

	created, _, err := sc.svc.Create(clientCtx(), createReq(lock.ReservationToken), "")
	require.NoError(t, err)

	_, err = sc.lockNine(context.Background())
	require.Error(t, err)
	assert.True(t, failure.IsConflict(err))

	_, err = sc.svc.Cancel(clientCtx(), created.ID, dto.CancelAppointmentRequest{Reason: "client request"})
	require.NoError(t, err)

	_, err = sc.lockNine(context.Background())
	assert.NoError(t, err)
}
