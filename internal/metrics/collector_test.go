package metrics_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/fleet-monitor/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError, // Suppress logs in tests
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
		collector.Stop()
	})

	Describe("event processing", func() {
		It("should process EventProbeCompleted", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{
				Type:     metrics.EventProbeCompleted,
				Host:     "ci01",
				Probe:    "icmp",
				Passed:   true,
				Duration: 6 * time.Second,
			})
			collector.Stop()

			snap := collector.Snapshot()
			pm := snap.Hosts["ci01"].Probes["icmp"]
			Expect(pm.Passed).To(BeTrue())
			Expect(pm.Runs).To(Equal(int64(1)))
			Expect(pm.Duration).To(Equal(6 * time.Second))
		})

		It("should process EventHTTPAttempt", func() {
			collector.Start(ctx)

			for _, code := range []int{200, 500, 200} {
				collector.Emit(metrics.Event{
					Type:       metrics.EventHTTPAttempt,
					Host:       "ci01",
					StatusCode: code,
					Duration:   100 * time.Millisecond,
				})
			}
			collector.Stop()

			hm := collector.Snapshot().Hosts["ci01"]
			Expect(hm.StatusCodes).To(Equal(map[int]int64{200: 2, 500: 1}))
			Expect(hm.AvgHTTP).To(Equal(100 * time.Millisecond))
		})

		It("should process EventVerdict", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{Type: metrics.EventVerdict, Host: "ci01", Verdict: "ALL_OKAY"})
			collector.Emit(metrics.Event{Type: metrics.EventVerdict, Host: "ci02", Verdict: "INVESTIGATION_NEEDED"})
			collector.Stop()

			snap := collector.Snapshot()
			Expect(snap.Hosts["ci01"].Verdict).To(Equal("ALL_OKAY"))
			Expect(snap.Hosts["ci02"].Verdict).To(Equal("INVESTIGATION_NEEDED"))

			families, err := collector.Registry().Gather()
			Expect(err).NotTo(HaveOccurred())

			series := 0
			for _, mf := range families {
				if mf.GetName() == "fleet_monitor_host_healthy" {
					series = len(mf.GetMetric())
				}
			}
			Expect(series).To(Equal(2))
		})

		It("should drain queued events when the context is cancelled", func() {
			for i := 0; i < 10; i++ {
				collector.Emit(metrics.Event{Type: metrics.EventProbeCompleted, Host: "ci01", Probe: "icmp", Passed: true})
			}

			collector.Start(ctx)
			cancel()
			collector.Stop()

			Expect(collector.Snapshot().Hosts["ci01"].Probes["icmp"].Runs).To(Equal(int64(10)))
		})
	})

	It("should drop events rather than block when the buffer is full", func() {
		small := metrics.NewCollector(1, log)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 5; i++ {
				small.Emit(metrics.Event{Type: metrics.EventProbeCompleted, Host: "ci01", Probe: "icmp"})
			}
		}()

		Eventually(done).Should(BeClosed())
	})

	It("should be safe to stop twice", func() {
		collector.Start(ctx)
		collector.Stop()
		collector.Stop()
	})

	Describe("WriteTextfile", func() {
		It("should write the registry in text format", func() {
			tempDir, err := os.MkdirTemp("", "metrics-test-*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(tempDir)

			collector.Start(ctx)
			collector.Emit(metrics.Event{Type: metrics.EventProbeCompleted, Host: "ci01", Probe: "icmp", Passed: false, Duration: time.Second})
			collector.Emit(metrics.Event{Type: metrics.EventVerdict, Host: "ci01", Verdict: "INVESTIGATION_NEEDED"})
			collector.Stop()

			path := filepath.Join(tempDir, "fleet_monitor.prom")
			Expect(collector.WriteTextfile(path)).To(Succeed())

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring(`fleet_monitor_probe_total{outcome="fail",probe="icmp"} 1`))
			Expect(string(content)).To(ContainSubstring(`fleet_monitor_host_healthy{host="ci01"} 0`))
		})
	})
})
