package backoffice

import "context"

// Telemetry records client events for observability. Implementations must be
// safe for concurrent use; channel callbacks and timers may fire from
// different goroutines.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
