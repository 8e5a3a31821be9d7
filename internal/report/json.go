package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
)

type jsonHost struct {
	Verdict     fleet.Verdict      `json:"verdict"`
	Probes      map[string]jsonRun `json:"probes,omitempty"`
	HTTPAvgMs   float64            `json:"http_avg_ms,omitempty"`
	HTTPP95Ms   float64            `json:"http_p95_ms,omitempty"`
	StatusCodes map[int]int64      `json:"http_status_codes,omitempty"`
}

type jsonRun struct {
	Passed     bool    `json:"passed"`
	Runs       int64   `json:"runs"`
	DurationMs float64 `json:"duration_ms"`
}

type jsonReport struct {
	RunID    string              `json:"run_id"`
	Started  time.Time           `json:"started"`
	Finished time.Time           `json:"finished"`
	Overall  fleet.Verdict       `json:"overall"`
	Skipped  int                 `json:"skipped"`
	Failing  []string            `json:"failing"`
	Hosts    map[string]jsonHost `json:"hosts"`
}

// JSONSink writes the report to a file, replacing any previous content.
type JSONSink struct {
	path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) Name() string {
	return "json"
}

func (s *JSONSink) Publish(_ context.Context, report Report) error {
	doc := jsonReport{
		RunID:    report.RunID,
		Started:  report.Started,
		Finished: report.Finished,
		Overall:  report.Overall(),
		Skipped:  report.Skipped,
		Failing:  report.Results.Failing(),
		Hosts:    make(map[string]jsonHost),
	}
	if doc.Failing == nil {
		doc.Failing = []string{}
	}

	for host, verdict := range report.Results.Snapshot() {
		entry := jsonHost{Verdict: verdict}
		if hm, ok := report.Metrics.Hosts[host]; ok {
			entry.HTTPAvgMs = millis(hm.AvgHTTP)
			entry.HTTPP95Ms = millis(hm.P95HTTP)
			entry.StatusCodes = hm.StatusCodes
			entry.Probes = make(map[string]jsonRun, len(hm.Probes))
			for name, pm := range hm.Probes {
				entry.Probes[name] = jsonRun{
					Passed:     pm.Passed,
					Runs:       pm.Runs,
					DurationMs: millis(pm.Duration),
				}
			}
		}
		doc.Hosts[host] = entry
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
