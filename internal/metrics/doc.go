// Package metrics collects probe outcomes and timings during a sweep.
//
// Probes and the orchestrator emit events on a buffered channel; a dedicated
// goroutine folds them into an in-memory store and into Prometheus
// collectors, so emitting never blocks a probe:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:     metrics.EventProbeCompleted,
//		Host:     "ci01",
//		Probe:    "icmp",
//		Passed:   true,
//		Duration: 6 * time.Second,
//	})
//
//	collector.Stop()
//	snapshot := collector.Snapshot()
//
// Stop drains pending events before returning. The Prometheus registry can be
// written to a node-exporter textfile with WriteTextfile.
package metrics
