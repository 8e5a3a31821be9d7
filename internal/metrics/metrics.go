package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	probes        map[string]map[string]ProbeMetrics
	httpLatencies map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	verdicts      map[string]string
	startTime     time.Time
}

type Snapshot struct {
	Duration time.Duration          `json:"duration"`
	Hosts    map[string]HostMetrics `json:"hosts"`
}

type HostMetrics struct {
	Verdict     string                  `json:"verdict,omitempty"`
	Probes      map[string]ProbeMetrics `json:"probes"`
	AvgHTTP     time.Duration           `json:"avg_http"`
	P50HTTP     time.Duration           `json:"p50_http"`
	P95HTTP     time.Duration           `json:"p95_http"`
	StatusCodes map[int]int64           `json:"status_codes,omitempty"`
}

type ProbeMetrics struct {
	Passed   bool          `json:"passed"`
	Runs     int64         `json:"runs"`
	Duration time.Duration `json:"duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:        make(map[string]map[string]ProbeMetrics),
		httpLatencies: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		verdicts:      make(map[string]string),
		startTime:     time.Now(),
	}
}

// RecordProbe stores the latest outcome of probe on host.
func (m *Metrics) RecordProbe(host, probe string, passed bool, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.probes[host] == nil {
		m.probes[host] = make(map[string]ProbeMetrics)
	}
	pm := m.probes[host][probe]
	pm.Passed = passed
	pm.Runs++
	pm.Duration = duration
	m.probes[host][probe] = pm
}

func (m *Metrics) RecordHTTPAttempt(host string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.httpLatencies[host] = append(m.httpLatencies[host], latency)

	if m.statusCodes[host] == nil {
		m.statusCodes[host] = make(map[int]int64)
	}
	m.statusCodes[host][statusCode]++
}

func (m *Metrics) RecordVerdict(host, verdict string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.verdicts[host] = verdict
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Duration: time.Since(m.startTime),
		Hosts:    make(map[string]HostMetrics),
	}

	allHosts := make(map[string]bool)
	for host := range m.probes {
		allHosts[host] = true
	}
	for host := range m.httpLatencies {
		allHosts[host] = true
	}
	for host := range m.verdicts {
		allHosts[host] = true
	}

	for host := range allHosts {
		hm := HostMetrics{
			Verdict: m.verdicts[host],
			Probes:  make(map[string]ProbeMetrics, len(m.probes[host])),
		}
		for name, pm := range m.probes[host] {
			hm.Probes[name] = pm
		}
		if codes := m.statusCodes[host]; len(codes) > 0 {
			hm.StatusCodes = make(map[int]int64, len(codes))
			for code, n := range codes {
				hm.StatusCodes[code] = n
			}
		}

		durations := m.httpLatencies[host]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			hm.AvgHTTP = average(sorted)
			hm.P50HTTP = percentile(sorted, 0.50)
			hm.P95HTTP = percentile(sorted, 0.95)
		}

		snap.Hosts[host] = hm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
