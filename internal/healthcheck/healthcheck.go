package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
	"github.com/angeloszaimis/fleet-monitor/internal/probe"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

type ICMPProbe interface {
	Check(ctx context.Context, host string) bool
}

type PortProbe interface {
	Check(ctx context.Context, host string, servicePort int) bool
}

type ServiceProbe interface {
	Check(ctx context.Context, address string) bool
}

type HTTPProbe interface {
	Check(ctx context.Context, endpoint string) bool
}

// Emitter receives probe and verdict events. *metrics.Collector satisfies it.
type Emitter interface {
	Emit(event metrics.Event)
}

// Probes groups the probes used by a Checker.
type Probes struct {
	ICMP    ICMPProbe
	Ports   PortProbe
	Service ServiceProbe
	HTTP    HTTPProbe
}

// Checker evaluates a single target.
type Checker struct {
	probes Probes
	events Emitter
	logger *slog.Logger
}

// NewChecker builds a Checker. events may be nil.
func NewChecker(probes Probes, events Emitter, logger *slog.Logger) *Checker {
	return &Checker{
		probes: probes,
		events: events,
		logger: logger,
	}
}

// Initial pings the host and then scans its SSH and service ports.
func (c *Checker) Initial(ctx context.Context, target *fleet.Target) fleet.InitialVerdict {
	ctx, log := c.scope(ctx, target)
	log.Info("Initial health checks started")

	passed := c.run(ctx, target, probe.NameICMP, func(ctx context.Context) bool {
		return c.probes.ICMP.Check(ctx, target.Host())
	}) && c.run(ctx, target, probe.NamePorts, func(ctx context.Context) bool {
		return c.probes.Ports.Check(ctx, target.Host(), target.Port())
	})

	verdict := fleet.InitialFrom(passed)
	if passed {
		log.Info("Initial health checks finished", slog.String("phase_verdict", string(verdict)))
	} else {
		log.Error("Initial health checks finished", slog.String("phase_verdict", string(verdict)))
	}
	return verdict
}

// Extended checks the service process over SSH and then its HTTP endpoint.
func (c *Checker) Extended(ctx context.Context, target *fleet.Target) fleet.ExtendedVerdict {
	ctx, log := c.scope(ctx, target)
	log.Info("Extended health checks started",
		slog.String("ssh_address", target.SSHAddress()),
		slog.String("endpoint", target.Endpoint()))

	passed := c.run(ctx, target, probe.NameService, func(ctx context.Context) bool {
		return c.probes.Service.Check(ctx, target.SSHAddress())
	}) && c.run(ctx, target, probe.NameHTTP, func(ctx context.Context) bool {
		return c.probes.HTTP.Check(ctx, target.Endpoint())
	})

	verdict := fleet.ExtendedFrom(passed)
	if passed {
		log.Info("Extended health checks finished", slog.String("phase_verdict", string(verdict)))
	} else {
		log.Error("Extended health checks finished", slog.String("phase_verdict", string(verdict)))
	}
	return verdict
}

// Check runs both phases and combines them into a host verdict. The Extended
// phase is skipped when the Initial phase fails.
func (c *Checker) Check(ctx context.Context, target *fleet.Target) fleet.Verdict {
	ctx, log := c.scope(ctx, target)

	initial := c.Initial(ctx, target)
	extended := fleet.ExtendedNotOK
	if initial == fleet.InitialFine {
		extended = c.Extended(ctx, target)
	} else {
		log.Warn("Extended health checks skipped",
			slog.String("initial", string(initial)))
	}

	verdict := fleet.Combine(initial, extended)
	c.emit(metrics.Event{
		Type:    metrics.EventVerdict,
		Host:    target.Host(),
		Verdict: string(verdict),
	})
	return verdict
}

func (c *Checker) run(ctx context.Context, target *fleet.Target, name string, fn func(context.Context) bool) bool {
	start := time.Now()
	passed := fn(ctx)
	c.emit(metrics.Event{
		Type:     metrics.EventProbeCompleted,
		Host:     target.Host(),
		Probe:    name,
		Passed:   passed,
		Duration: time.Since(start),
	})
	return passed
}

func (c *Checker) emit(event metrics.Event) {
	if c.events != nil {
		c.events.Emit(event)
	}
}

// scope returns a context whose logger carries the target host. Probes log
// through it, so their lines share the host and run attributes.
func (c *Checker) scope(ctx context.Context, target *fleet.Target) (context.Context, *slog.Logger) {
	if host, ok := HostFrom(ctx); ok && host == target.Host() {
		return ctx, logger.FromContext(ctx, c.logger)
	}
	log := logger.FromContext(ctx, c.logger).With(slog.String("host", target.Host()))
	ctx = WithHost(ctx, target.Host())
	return logger.NewContext(ctx, log), log
}
