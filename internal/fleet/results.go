package fleet

import (
	"sort"
	"sync"
)

// Results maps host identity to its verdict for one sweep. It is safe for
// concurrent use; a second write for the same host replaces the first.
type Results struct {
	mutex    sync.RWMutex
	verdicts map[string]Verdict
}

func NewResults() *Results {
	return &Results{
		verdicts: make(map[string]Verdict),
	}
}

// Record stores the verdict for host.
func (r *Results) Record(host string, verdict Verdict) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.verdicts[host] = verdict
}

// Get returns the verdict recorded for host, if any.
func (r *Results) Get(host string) (Verdict, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	v, ok := r.verdicts[host]
	return v, ok
}

func (r *Results) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.verdicts)
}

// Snapshot returns a copy of the verdict mapping.
func (r *Results) Snapshot() map[string]Verdict {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snap := make(map[string]Verdict, len(r.verdicts))
	for host, v := range r.verdicts {
		snap[host] = v
	}
	return snap
}

// Hosts returns the recorded hosts in sorted order.
func (r *Results) Hosts() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	hosts := make([]string, 0, len(r.verdicts))
	for host := range r.verdicts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Failing returns the sorted hosts whose verdict needs investigation.
func (r *Results) Failing() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var failing []string
	for host, v := range r.verdicts {
		if v == VerdictInvestigationNeeded {
			failing = append(failing, host)
		}
	}
	sort.Strings(failing)
	return failing
}

// Overall is INVESTIGATION_NEEDED when any host needs investigation.
func (r *Results) Overall() Verdict {
	if len(r.Failing()) > 0 {
		return VerdictInvestigationNeeded
	}
	return VerdictAllOkay
}
