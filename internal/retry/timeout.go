package retry

import "time"

// MinTimeout is the floor applied when a shrinking schedule reaches zero.
const MinTimeout = time.Second

// ShrinkingTimeouts returns one timeout per attempt. The first attempt uses
// base; attempt i uses the previous timeout minus i*interval, so 30s and 5s
// give 30s, 25s, 15s. Values that would drop below MinTimeout are clamped.
func ShrinkingTimeouts(base, interval time.Duration, attempts int) []time.Duration {
	if attempts < 1 {
		return nil
	}

	timeouts := make([]time.Duration, attempts)
	current := base
	for i := 0; i < attempts; i++ {
		if i > 0 {
			current -= time.Duration(i) * interval
		}
		timeouts[i] = max(current, MinTimeout)
	}

	return timeouts
}
