package healthcheck_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

// fakeProbe answers per key (host, address or endpoint) and counts calls.
type fakeProbe struct {
	mu       sync.Mutex
	outcomes map[string]bool
	fallback bool
	delay    time.Duration
	calls    map[string]int
	inFlight int
	maxSeen  int
}

func newFakeProbe(fallback bool) *fakeProbe {
	return &fakeProbe{
		outcomes: make(map[string]bool),
		fallback: fallback,
		calls:    make(map[string]int),
	}
}

func (f *fakeProbe) set(key string, ok bool) *fakeProbe {
	f.outcomes[key] = ok
	return f
}

func (f *fakeProbe) check(ctx context.Context, key string) bool {
	f.mu.Lock()
	f.calls[key]++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	ok, found := f.outcomes[key]
	if !found {
		ok = f.fallback
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return ok
}

func (f *fakeProbe) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeProbe) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeProbe) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

type hostProbe struct{ *fakeProbe }

func (p hostProbe) Check(ctx context.Context, host string) bool {
	return p.check(ctx, host)
}

type portProbe struct{ *fakeProbe }

func (p portProbe) Check(ctx context.Context, host string, _ int) bool {
	return p.check(ctx, host)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []metrics.Event
}

func (r *recordingEmitter) Emit(event metrics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) ofType(t metrics.EventType) []metrics.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []metrics.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// loggingCheck writes one line through the logger carried by ctx.
type loggingCheck struct{}

func (loggingCheck) Check(ctx context.Context, _ string) bool {
	logger.FromContext(ctx, slog.Default()).Info("check line", slog.String("outcome", "pass"))
	return true
}
