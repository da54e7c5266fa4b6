package telemetry

import "time"

// RequestRecorder matches core.MetricsCollector without importing core.
type RequestRecorder interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Fanout forwards every request to all recorders.
type Fanout []RequestRecorder

func (f Fanout) RecordRequest(method, endpoint, status string, duration time.Duration) {
	for _, rec := range f {
		rec.RecordRequest(method, endpoint, status, duration)
	}
}
