package report

import (
	"context"
	"fmt"
)

// TextfileWriter exports collected metrics in the Prometheus text format.
// *metrics.Collector satisfies it.
type TextfileWriter interface {
	WriteTextfile(path string) error
}

// MetricsSink writes a node-exporter textfile.
type MetricsSink struct {
	writer TextfileWriter
	path   string
}

func NewMetricsSink(writer TextfileWriter, path string) *MetricsSink {
	return &MetricsSink{writer: writer, path: path}
}

func (s *MetricsSink) Name() string {
	return "metrics"
}

func (s *MetricsSink) Publish(_ context.Context, _ Report) error {
	if err := s.writer.WriteTextfile(s.path); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", s.path, err)
	}
	return nil
}
