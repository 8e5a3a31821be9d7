package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/fleet-monitor/internal/fleet"
)

const namespace = "fleet_monitor"

type promMetrics struct {
	probeTotal    *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	httpAttempts  *prometheus.HistogramVec
	hostHealthy   *prometheus.GaugeVec
	verdictTime   *prometheus.GaugeVec
}

func newPromMetrics(registry *prometheus.Registry) *promMetrics {
	m := &promMetrics{
		probeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_total",
				Help:      "Probe invocations by probe and outcome",
			},
			[]string{"probe", "outcome"},
		),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Time taken by each probe",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"probe"},
		),
		httpAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_attempt_duration_seconds",
				Help:      "Latency of HTTP probe attempts by status code",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"code"},
		),
		hostHealthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "host_healthy",
				Help:      "1 when the host verdict is ALL_OKAY, 0 otherwise",
			},
			[]string{"host"},
		),
		verdictTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "host_verdict_timestamp_seconds",
				Help:      "Unix time the host verdict was recorded",
			},
			[]string{"host"},
		),
	}

	registry.MustRegister(m.probeTotal, m.probeDuration, m.httpAttempts, m.hostHealthy, m.verdictTime)
	return m
}

func (m *promMetrics) observeProbe(probe string, passed bool, d time.Duration) {
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	m.probeTotal.WithLabelValues(probe, outcome).Inc()
	m.probeDuration.WithLabelValues(probe).Observe(d.Seconds())
}

func (m *promMetrics) observeHTTPAttempt(statusCode int, d time.Duration) {
	m.httpAttempts.WithLabelValues(strconv.Itoa(statusCode)).Observe(d.Seconds())
}

func (m *promMetrics) setVerdict(host, verdict string, at time.Time) {
	healthy := 0.0
	if verdict == string(fleet.VerdictAllOkay) {
		healthy = 1
	}
	m.hostHealthy.WithLabelValues(host).Set(healthy)
	m.verdictTime.WithLabelValues(host).Set(float64(at.Unix()))
}

// WriteTextfile writes the collected metrics in the Prometheus text format,
// atomically replacing path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
