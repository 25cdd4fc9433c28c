package mocks

import (
	"go.opentelemetry.io/otel/trace/noop"

	"slotkeeper/infras/otel"
)

// NewOtel returns an Otel whose spans are never recorded.
func NewOtel() otel.Otel {
	return otel.NewWithProvider(noop.NewTracerProvider())
}
