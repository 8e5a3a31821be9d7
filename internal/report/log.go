package report

import (
	"context"
	"log/slog"
)

// LogSink writes one line per host verdict and a closing summary.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Publish(_ context.Context, report Report) error {
	log := s.logger.With(slog.String("run_id", report.RunID))

	verdicts := report.Results.Snapshot()
	for _, host := range report.Results.Hosts() {
		log.Info("Host health",
			slog.String("host", host),
			slog.String("verdict", string(verdicts[host])))
	}

	attrs := []any{
		slog.String("overall", string(report.Overall())),
		slog.Int("checked", len(verdicts)),
		slog.Int("skipped", report.Skipped),
		slog.Duration("elapsed", report.Finished.Sub(report.Started)),
	}
	if failing := report.Results.Failing(); len(failing) > 0 {
		log.Warn("Fleet health summary", append(attrs, slog.Any("investigate", failing))...)
		return nil
	}
	log.Info("Fleet health summary", attrs...)
	return nil
}
