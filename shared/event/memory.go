package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

type memoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewMemory returns an in-process bus that delivers synchronously on Publish.
func NewMemory() Bus {
	return &memoryBus{handlers: map[string][]Handler{}}
}

func (b *memoryBus) Publish(ctx context.Context, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", name, err)
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	var errs []error

	for _, handle := range handlers {
		if err := handle(ctx, body); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("event %s: %w", name, errors.Join(errs...))
	}

	return nil
}

func (b *memoryBus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *memoryBus) Start(ctx context.Context) {
	<-ctx.Done()
}

func (b *memoryBus) Close() error {
	return nil
}
