package orchestrator

import "time"

// window computes the [since, until) fetch range for a tenant per spec
// §4.7: a tenant with no recorded lastPoll looks back defaultLookback; one
// with a stale lastPoll is clamped to maxLookback so a long-offline tenant
// never replays days of history in one tick.
func window(lastPoll *time.Time, now time.Time, defaultLookback, maxLookback time.Duration) (since, until time.Time) {
	until = now
	if lastPoll == nil {
		return now.Add(-defaultLookback), until
	}

	earliestAllowed := now.Add(-maxLookback)
	if lastPoll.Before(earliestAllowed) {
		return earliestAllowed, until
	}
	return *lastPoll, until
}
