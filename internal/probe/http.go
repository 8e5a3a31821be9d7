package probe

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/fleet-monitor/internal/retry"
)

const (
	DefaultHTTPAttempts    = 3
	DefaultTimeoutBase     = 30 * time.Second
	DefaultTimeoutInterval = 5 * time.Second
)

// Attempt describes one HTTP request made by the probe.
type Attempt struct {
	Endpoint   string
	Number     int
	Timeout    time.Duration
	StatusCode int
	Latency    time.Duration
	Err        error
}

// HTTPConfig configures the HTTP probe.
type HTTPConfig struct {
	Attempts           int
	TimeoutBase        time.Duration
	TimeoutInterval    time.Duration
	Aggregate          Aggregate
	InsecureSkipVerify bool
}

// HTTP checks that the service answers 200 OK, retrying with a shrinking
// per-attempt timeout.
type HTTP struct {
	client    *http.Client
	timeouts  []time.Duration
	aggregate Aggregate
	observe   func(context.Context, Attempt)
	logger    *slog.Logger
}

// HTTPOption configures an HTTP probe.
type HTTPOption func(*HTTP)

// WithClient replaces the HTTP client. Its Timeout is ignored in favour of
// the per-attempt schedule.
func WithClient(client *http.Client) HTTPOption {
	return func(p *HTTP) {
		p.client = client
	}
}

// WithAttemptObserver registers a callback invoked after every attempt with
// the context passed to Check.
func WithAttemptObserver(fn func(context.Context, Attempt)) HTTPOption {
	return func(p *HTTP) {
		p.observe = fn
	}
}

func NewHTTP(cfg HTTPConfig, logger *slog.Logger, opts ...HTTPOption) *HTTP {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultHTTPAttempts
	}
	if cfg.TimeoutBase <= 0 {
		cfg.TimeoutBase = DefaultTimeoutBase
	}
	if cfg.Aggregate == "" {
		cfg.Aggregate = AggregateLast
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	p := &HTTP{
		client:    &http.Client{Transport: transport},
		timeouts:  retry.ShrinkingTimeouts(cfg.TimeoutBase, cfg.TimeoutInterval, cfg.Attempts),
		aggregate: cfg.Aggregate,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeouts returns the per-attempt timeout schedule.
func (p *HTTP) Timeouts() []time.Duration {
	out := make([]time.Duration, len(p.timeouts))
	copy(out, p.timeouts)
	return out
}

// Check issues one GET per attempt. Every attempt runs; with AggregateLast
// only the final attempt decides the result.
func (p *HTTP) Check(ctx context.Context, endpoint string) bool {
	log := probeLogger(ctx, p.logger, endpointHost(endpoint), NameHTTP).With(slog.String("endpoint", endpoint))

	outcomes := make([]bool, 0, len(p.timeouts))
	for i, timeout := range p.timeouts {
		if ctx.Err() != nil {
			log.Warn("HTTP check interrupted",
				slog.String("outcome", outcome(false)),
				slog.Int("attempt", i),
				slog.Any("err", ctx.Err()))
			return false
		}

		attempt := p.do(ctx, endpoint, i, timeout)
		if p.observe != nil {
			p.observe(ctx, attempt)
		}

		ok := attempt.Err == nil && attempt.StatusCode == http.StatusOK
		attrs := []any{
			slog.String("outcome", outcome(ok)),
			slog.Int("attempt", i),
			slog.Duration("timeout", timeout),
			slog.Int("status", attempt.StatusCode),
			slog.Duration("latency", attempt.Latency),
		}
		switch {
		case attempt.Err != nil:
			log.Error("HTTP request failed", append(attrs, slog.Any("err", attempt.Err))...)
		case !ok:
			log.Error("HTTP response not OK", attrs...)
		default:
			log.Info("HTTP response OK", attrs...)
		}

		outcomes = append(outcomes, ok)
	}

	result := p.aggregate.Fold(outcomes)
	log.Info("HTTP check finished",
		slog.String("outcome", outcome(result)),
		slog.String("aggregate", string(p.aggregate)))
	return result
}

func (p *HTTP) do(ctx context.Context, endpoint string, number int, timeout time.Duration) Attempt {
	attempt := Attempt{Endpoint: endpoint, Number: number, Timeout: timeout}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		attempt.Err = err
		return attempt
	}

	start := time.Now()
	res, err := p.client.Do(req)
	attempt.Latency = time.Since(start)
	if err != nil {
		attempt.Err = err
		return attempt
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	attempt.StatusCode = res.StatusCode
	return attempt
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return endpoint
	}
	return u.Hostname()
}
