package probe

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

// Names used for logging and metrics.
const (
	NameICMP    = "icmp"
	NamePorts   = "port_scan"
	NameService = "service_running"
	NameHTTP    = "http_response"
)

// Aggregate selects how a probe that checks several things combines them.
type Aggregate string

const (
	// AggregateLast keeps only the outcome of the final check.
	AggregateLast Aggregate = "last"
	// AggregateAll requires every check to pass.
	AggregateAll Aggregate = "all"
)

// Fold reduces the outcomes of the individual checks to one result.
func (a Aggregate) Fold(outcomes []bool) bool {
	if len(outcomes) == 0 {
		return false
	}

	if a == AggregateAll {
		for _, ok := range outcomes {
			if !ok {
				return false
			}
		}
		return true
	}

	return outcomes[len(outcomes)-1]
}

func outcome(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

// probeLogger prefers the logger carried by ctx, which is already scoped to
// the host and the sweep run. Without one, the host is added to base.
func probeLogger(ctx context.Context, base *slog.Logger, host, name string) *slog.Logger {
	if l := logger.FromContext(ctx, nil); l != nil {
		return l.With(slog.String("probe", name))
	}
	return base.With(slog.String("host", host), slog.String("probe", name))
}
