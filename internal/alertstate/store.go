package alertstate

import (
	"context"
	"time"
)

// DedupEntry is the value stored against a dedup key: the event time of the
// most recently admitted match for that (tenant, rule, user) triple.
type DedupEntry struct {
	Timestamp time.Time `json:"timestamp"`
}

// ThrottleEntry is the value stored against a throttle key.
type ThrottleEntry struct {
	LastNotified time.Time `json:"lastNotified"`
	AlertCount   int       `json:"alertCount"`
}

// Store is the two-layer alert-state backend: a dedup table keyed by
// (tenant, rule, user) with a 5-minute absolute-difference window, and a
// notification-throttle table with a 60-minute window. Implementations are
// expected to back onto an external, TTL-capable key-value store so that
// concurrent access from other processes never needs locking.
type Store interface {
	// IsDuplicate reports whether eventTime falls within DedupWindow seconds
	// of the last recorded event time for this key, in either direction.
	IsDuplicate(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) (bool, error)

	// Record upserts the dedup entry's timestamp to eventTime.
	Record(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) error

	// WasNotifiedRecently reports whether a notification for this key was
	// recorded within ThrottleWindow seconds of now.
	WasNotifiedRecently(ctx context.Context, tenantID, ruleName, user string, now time.Time) (bool, error)

	// RecordNotification upserts lastNotified to now and increments
	// alertCount (starting at 1 on first write).
	RecordNotification(ctx context.Context, tenantID, ruleName, user string, now time.Time) error

	// Sweep deletes dedup and throttle entries whose window has elapsed
	// relative to now. Bounds storage; never required for correctness.
	Sweep(ctx context.Context, now time.Time) error
}
