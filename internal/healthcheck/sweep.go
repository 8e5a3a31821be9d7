package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
	"github.com/angeloszaimis/fleet-monitor/pkg/logger"
)

// Summary describes one completed sweep.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Checked  int
	Skipped  int
}

// Sweeper checks every active target of an inventory.
type Sweeper struct {
	checker *Checker
	workers int
	logger  *slog.Logger
}

// NewSweeper builds a Sweeper. workers below 1 run hosts sequentially.
func NewSweeper(checker *Checker, workers int, logger *slog.Logger) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	return &Sweeper{
		checker: checker,
		workers: workers,
		logger:  logger,
	}
}

// Sweep checks each active target and records its verdict in results.
// Inactive targets are skipped and get no verdict. A cancelled context stops
// the sweep; hosts that did not finish are left out of results.
func (s *Sweeper) Sweep(ctx context.Context, targets []*fleet.Target, results *fleet.Results) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	log := s.logger.With(slog.String("run_id", summary.RunID))
	ctx = logger.NewContext(ctx, log)

	active := make([]*fleet.Target, 0, len(targets))
	for _, t := range targets {
		if !t.Active() {
			summary.Skipped++
			log.Info("Skipping inactive target", slog.String("host", t.Host()))
			continue
		}
		active = append(active, t)
	}

	log.Info("Sweep started",
		slog.Int("active", len(active)),
		slog.Int("inactive", summary.Skipped),
		slog.Int("workers", s.workers))

	var (
		g       errgroup.Group
		checked atomic.Int64
	)
	g.SetLimit(s.workers)

	for _, t := range active {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			verdict := s.checker.Check(ctx, t)
			if ctx.Err() != nil {
				log.Warn("Discarding verdict of interrupted host", slog.String("host", t.Host()))
				return nil
			}
			results.Record(t.Host(), verdict)
			checked.Add(1)
			log.Info("Host verdict recorded",
				slog.String("host", t.Host()),
				slog.String("verdict", string(verdict)))
			return nil
		})
	}
	_ = g.Wait()

	summary.Finished = time.Now()
	summary.Checked = int(checked.Load())

	if err := ctx.Err(); err != nil {
		log.Error("Sweep interrupted",
			slog.Int("checked", summary.Checked),
			slog.Int("active", len(active)),
			slog.Any("err", err))
		return summary, fmt.Errorf("sweep interrupted after %d of %d hosts: %w", summary.Checked, len(active), err)
	}

	log.Info("Sweep finished",
		slog.Int("checked", summary.Checked),
		slog.String("overall", string(results.Overall())),
		slog.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}
