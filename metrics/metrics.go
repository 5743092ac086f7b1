// Package metrics defines the instrumentation surface of the gateway.
package metrics

import "time"

// Recorder counts gateway events and observes operation latency.
// Counter names: payment_challenge, payment_verified, payment_settled,
// payment_failed, capability_executed, capability_error, render_fallback.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
