package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventProbeCompleted EventType = "probe_completed"
	EventHTTPAttempt    EventType = "http_attempt"
	EventVerdict        EventType = "verdict"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	Host       string
	Probe      string
	Passed     bool
	Duration   time.Duration
	StatusCode int
	Verdict    string
}

type Collector struct {
	eventCh  chan Event
	metrics  *Metrics
	registry *prometheus.Registry
	prom     *promMetrics
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		eventCh:  make(chan Event, bufferSize),
		metrics:  NewMetrics(),
		registry: registry,
		prom:     newPromMetrics(registry),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Emit queues an event without blocking. Events are dropped when the buffer is full.
func (c *Collector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("Metrics buffer full, dropping event",
			slog.String("type", string(event.Type)),
			slog.String("host", event.Host))
	}
}

func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop ends the collector goroutine after draining queued events.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}

func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()
	c.logger.Debug("Metrics collector started")
	defer c.logger.Debug("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		case <-c.stopCh:
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventProbeCompleted:
		c.metrics.RecordProbe(event.Host, event.Probe, event.Passed, event.Duration)
		c.prom.observeProbe(event.Probe, event.Passed, event.Duration)

	case EventHTTPAttempt:
		c.metrics.RecordHTTPAttempt(event.Host, event.StatusCode, event.Duration)
		c.prom.observeHTTPAttempt(event.StatusCode, event.Duration)

	case EventVerdict:
		c.metrics.RecordVerdict(event.Host, event.Verdict)
		c.prom.setVerdict(event.Host, event.Verdict, event.Timestamp)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}

// Registry exposes the Prometheus registry holding the sweep metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
