package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
)

// Report is the outcome of one sweep.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Skipped  int
	Results  *fleet.Results
	Metrics  metrics.Snapshot
}

// Overall is the fleet-wide verdict.
func (r Report) Overall() fleet.Verdict {
	return r.Results.Overall()
}

type Sink interface {
	Name() string
	Publish(ctx context.Context, report Report) error
}

// PublishAll writes the log summary and then hands the report to every sink.
// Sink failures are joined; one failing sink does not stop the others.
func PublishAll(ctx context.Context, report Report, logger *slog.Logger, sinks ...Sink) error {
	if err := NewLogSink(logger).Publish(ctx, report); err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.Publish(ctx, report); err != nil {
			logger.Error("Report sink failed",
				slog.String("sink", sink.Name()),
				slog.String("run_id", report.RunID),
				slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		logger.Info("Report published",
			slog.String("sink", sink.Name()),
			slog.String("run_id", report.RunID))
	}
	return errors.Join(errs...)
}
