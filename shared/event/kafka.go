package event

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"slotkeeper/infras/kafka"
)

type kafkaBus struct {
	client kafka.Client

	mu       sync.Mutex
	handlers map[string][]Handler
}

// NewKafka publishes each event name to its own topic.
func NewKafka(client kafka.Client) Bus {
	return &kafkaBus{
		client:   client,
		handlers: map[string][]Handler{},
	}
}

func (b *kafkaBus) Publish(ctx context.Context, name string, payload any) error {
	key := name
	if keyed, ok := payload.(Keyed); ok {
		key = keyed.EventKey()
	}

	return b.client.SendMessages(ctx, b.client.Topic(name), kafka.Message{Key: key, Value: payload}) //nolint:wrapcheck
}

func (b *kafkaBus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *kafkaBus) Start(ctx context.Context) {
	b.mu.Lock()
	subscriptions := make(map[string][]Handler, len(b.handlers))
	for name, handlers := range b.handlers {
		subscriptions[name] = append([]Handler(nil), handlers...)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup

	for name, handlers := range subscriptions {
		wg.Add(1)

		go func() {
			defer wg.Done()

			b.client.Consume(ctx, "", b.client.Topic(name), func(msg kafkaGo.Message) {
				for _, handle := range handlers {
					if err := handle(ctx, msg.Value); err != nil {
						log.Error().Err(err).Str("event", name).Str("key", string(msg.Key)).Msg("event handler failed")
					}
				}
			})
		}()
	}

	wg.Wait()
}

func (b *kafkaBus) Close() error {
	return b.client.Close() //nolint:wrapcheck
}
