package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"slotkeeper/config"
	"slotkeeper/infras/kafka"
	kafkaMocks "slotkeeper/infras/kafka/mocks"
	"slotkeeper/shared/event"
	eventMocks "slotkeeper/shared/event/mocks"
)

func TestMemoryBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := event.NewMemory()

	var got []event.SlotReleasedPayload

	bus.Subscribe(event.SlotReleased, func(_ context.Context, payload []byte) error {
		var p event.SlotReleasedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}

		got = append(got, p)

		return nil
	})

	err := bus.Publish(context.Background(), event.SlotReleased, event.SlotReleasedPayload{
		SlotUsage:        event.SlotUsage{UnitID: "u1", ServiceID: "s1", Date: "2025-03-03", StartTime: "09:00", EndTime: "09:30", CapacityTotal: 1},
		ReservationToken: "resv_1",
		Reason:           "manual",
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "manual", got[0].Reason)
	assert.Equal(t, "09:00", got[0].StartTime)
}

func TestMemoryBus_NoSubscriber(t *testing.T) {
	bus := event.NewMemory()

	assert.NoError(t, bus.Publish(context.Background(), event.AppointmentCreated, event.AppointmentPayload{AppointmentID: "a1"}))
}

func TestMemoryBus_HandlerErrorsAreReturned(t *testing.T) {
	bus := event.NewMemory()
	calls := 0

	bus.Subscribe(event.AppointmentNoShow, func(context.Context, []byte) error {
		calls++

		return errors.New("boom")
	})
	bus.Subscribe(event.AppointmentNoShow, func(context.Context, []byte) error {
		calls++

		return nil
	})

	err := bus.Publish(context.Background(), event.AppointmentNoShow, event.AppointmentPayload{AppointmentID: "a1"})

	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 2, calls)
}

func TestMemoryBus_UnmarshalablePayload(t *testing.T) {
	bus := event.NewMemory()

	err := bus.Publish(context.Background(), event.SlotLocked, make(chan int))

	assert.Error(t, err)
}

func TestMemoryBus_StartReturnsOnCancel(t *testing.T) {
	bus := event.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		bus.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	assert.NoError(t, bus.Close())
}

func TestNotify_SwallowsPublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := eventMocks.NewMockBus(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bus.EXPECT().
		Publish(gomock.Any(), event.SlotLocked, gomock.Any()).
		DoAndReturn(func(pubCtx context.Context, _ string, _ any) error {
			// detached from the cancelled request context but bounded by a deadline
			assert.NoError(t, pubCtx.Err())

			_, hasDeadline := pubCtx.Deadline()
			assert.True(t, hasDeadline)

			return errors.New("broker down")
		})

	event.Notify(ctx, bus, time.Second, event.SlotLocked, event.SlotLockedPayload{})
}

func TestKafkaBus_PublishUsesTopicAndKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := kafkaMocks.NewMockClient(ctrl)

	payload := event.AppointmentPayload{AppointmentID: "appt-1", Status: "scheduled"}

	client.EXPECT().Topic(event.AppointmentCreated).Return("slotkeeper.appointment.created")
	client.EXPECT().
		SendMessages(gomock.Any(), "slotkeeper.appointment.created", kafka.Message{Key: "appt-1", Value: payload}).
		Return(nil)

	bus := event.NewKafka(client)

	assert.NoError(t, bus.Publish(context.Background(), event.AppointmentCreated, payload))
}

func TestKafkaBus_PublishUnkeyedFallsBackToName(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := kafkaMocks.NewMockClient(ctrl)

	client.EXPECT().Topic(event.SlotLocked).Return(event.SlotLocked)
	client.EXPECT().
		SendMessages(gomock.Any(), event.SlotLocked, kafka.Message{Key: event.SlotLocked, Value: map[string]int{"n": 1}}).
		Return(errors.New("unreachable"))

	bus := event.NewKafka(client)

	assert.Error(t, bus.Publish(context.Background(), event.SlotLocked, map[string]int{"n": 1}))
}

func TestKafkaBus_StartConsumesSubscribedTopics(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := kafkaMocks.NewMockClient(ctrl)

	var (
		mu       sync.Mutex
		received []string
	)

	bus := event.NewKafka(client)
	bus.Subscribe(event.AppointmentCancelled, func(_ context.Context, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()

		received = append(received, string(payload))

		return nil
	})

	client.EXPECT().Topic(event.AppointmentCancelled).Return("p." + event.AppointmentCancelled)
	client.EXPECT().
		Consume(gomock.Any(), "", "p."+event.AppointmentCancelled, gomock.Any()).
		Do(func(_ context.Context, _, _ string, handler func(kafkaGo.Message)) {
			handler(kafkaGo.Message{Key: []byte("a1"), Value: []byte(`{"appointment_id":"a1"}`)})
		})

	bus.Start(context.Background())

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{`{"appointment_id":"a1"}`}, received)
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := &config.Config{}

	cfg.Event.Driver = event.DriverMemory
	assert.NotNil(t, event.New(cfg))

	cfg.Event.Driver = "carrier-pigeon"
	assert.NotNil(t, event.New(cfg))
}

func TestPayloadKeys(t *testing.T) {
	usage := event.SlotUsage{UnitID: "u1", ServiceID: "s1", Date: "2025-03-03", StartTime: "09:00"}

	assert.Equal(t, "u1:s1:2025-03-03T09:00", usage.EventKey())
	assert.Equal(t, "a1", event.AppointmentPayload{AppointmentID: "a1"}.EventKey())

	locked := event.SlotLockedPayload{SlotUsage: usage}
	assert.Equal(t, usage.EventKey(), locked.EventKey())
}
