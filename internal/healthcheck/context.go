package healthcheck

import (
	"context"

	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
	"github.com/angeloszaimis/fleet-monitor/internal/probe"
)

type contextKey int

const hostKey contextKey = iota

// WithHost returns a context carrying the host being checked.
func WithHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

func HostFrom(ctx context.Context) (string, bool) {
	host, ok := ctx.Value(hostKey).(string)
	return host, ok
}

// ObserveHTTP returns an HTTP probe observer that forwards every attempt to
// events under the host stored in the context.
func ObserveHTTP(events Emitter) func(context.Context, probe.Attempt) {
	return func(ctx context.Context, attempt probe.Attempt) {
		host, ok := HostFrom(ctx)
		if !ok {
			host = attempt.Endpoint
		}
		events.Emit(metrics.Event{
			Type:       metrics.EventHTTPAttempt,
			Host:       host,
			Probe:      probe.NameHTTP,
			Passed:     attempt.Err == nil && attempt.StatusCode == 200,
			Duration:   attempt.Latency,
			StatusCode: attempt.StatusCode,
		})
	}
}
