package alertstate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/enum"
)

// Outcome is the result of running a matched event through the alert-state
// machine.
type Outcome struct {
	// Admitted is false when the dedup layer suppresses this match as a
	// repeat within the dedup window; no alert is produced for it.
	Admitted bool

	// ShouldNotify is set on the admitted alert and read by the notifier.
	// A suppressed match never reaches this field.
	ShouldNotify bool
}

// Gate runs a matched event through both layers of the alert-state machine
// and reports the outcome. All state operations are best-effort: a storage
// error is logged and treated per spec - absent on read (so the alert
// proceeds), swallowed on write (the alert still proceeds; at-least-once
// delivery is preferred over a silent drop).
func Gate(ctx context.Context, store Store, log *zap.Logger, tenantID, ruleName, user string, severity enum.Severity, eventTime, now time.Time) Outcome {
	dup, err := store.IsDuplicate(ctx, tenantID, ruleName, user, eventTime)
	if err != nil {
		log.Warn("alert-state dedup read failed, treating as not duplicate",
			zap.String("tenant_id", tenantID), zap.String("rule", ruleName), zap.Error(err))
		dup = false
	}
	if dup {
		return Outcome{Admitted: false}
	}

	if err := store.Record(ctx, tenantID, ruleName, user, eventTime); err != nil {
		log.Warn("alert-state dedup write failed, proceeding anyway",
			zap.String("tenant_id", tenantID), zap.String("rule", ruleName), zap.Error(err))
	}

	if severity.IsCritical() {
		if err := store.RecordNotification(ctx, tenantID, ruleName, user, now); err != nil {
			log.Warn("alert-state notification write failed, proceeding anyway",
				zap.String("tenant_id", tenantID), zap.String("rule", ruleName), zap.Error(err))
		}
		return Outcome{Admitted: true, ShouldNotify: true}
	}

	throttled, err := store.WasNotifiedRecently(ctx, tenantID, ruleName, user, now)
	if err != nil {
		log.Warn("alert-state throttle read failed, treating as not recently notified",
			zap.String("tenant_id", tenantID), zap.String("rule", ruleName), zap.Error(err))
		throttled = false
	}
	if throttled {
		return Outcome{Admitted: true, ShouldNotify: false}
	}

	if err := store.RecordNotification(ctx, tenantID, ruleName, user, now); err != nil {
		log.Warn("alert-state notification write failed, proceeding anyway",
			zap.String("tenant_id", tenantID), zap.String("rule", ruleName), zap.Error(err))
	}
	return Outcome{Admitted: true, ShouldNotify: true}
}
