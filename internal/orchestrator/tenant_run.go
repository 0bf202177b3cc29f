package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/alert"
	"github.com/vigilrun/vigil/internal/alertstate"
	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/event"
	"github.com/vigilrun/vigil/internal/logger"
	"github.com/vigilrun/vigil/internal/rule"
	"github.com/vigilrun/vigil/internal/tenant"
	"github.com/vigilrun/vigil/internal/upstream"
)

// tenantOutcome is everything RunOnce needs to record a tenant's result.
type tenantOutcome struct {
	alerts          []alert.Alert
	eventsProcessed int
	auditDisabled   bool
	err             error
}

// runTenant fetches all three sources concurrently, evaluates every event
// and gates matches through the alert-state machine. Per source, only a
// classified error (auth-class failures, or audit-log-disabled) fails that
// source; a classified error on SignIn or SecurityAlert fails the whole
// tenant (no lastPoll advance), while a classified auditLogDisabled error
// only skips the audit fetch. Any other, non-classified error is a
// transient content-retrieval failure within an otherwise authenticated
// tenant: it is logged and the source degrades to an empty event list
// rather than failing the tenant.
func (o *Orchestrator) runTenant(ctx context.Context, t tenant.Tenant, rules []*rule.Rule, since, until time.Time) tenantOutcome {
	log := logger.GetLogger(ctx)
	results := fetchAll(ctx, o.clients, t.ID, since, until)

	signIn := results[enum.SourceSignIn]
	signInEvents, classifiedErr := classifySourceResult(log, t.ID, signIn)
	if classifiedErr != nil {
		return tenantOutcome{err: classifiedErr}
	}

	securityAlert := results[enum.SourceSecurityAlert]
	securityAlertEvents, classifiedErr := classifySourceResult(log, t.ID, securityAlert)
	if classifiedErr != nil {
		return tenantOutcome{err: classifiedErr}
	}

	audit := results[enum.SourceAuditLog]
	auditDisabled := false
	auditEvents := audit.events
	if audit.err != nil {
		var classified *upstream.ClassifiedError
		if errors.As(audit.err, &classified) {
			if classified.Status == enum.TenantStatusAuditLogDisabled {
				auditDisabled = true
				auditEvents = nil
			} else {
				return tenantOutcome{err: classified}
			}
		} else {
			log.Warn("audit log fetch failed, degrading to empty events",
				zap.String("tenant_id", t.ID), zap.Error(audit.err))
			auditEvents = nil
		}
	}

	now := time.Now()
	outcome := tenantOutcome{auditDisabled: auditDisabled}

	for _, batch := range []struct {
		source enum.SourceType
		events []event.Tree
	}{
		{enum.SourceSignIn, signInEvents},
		{enum.SourceSecurityAlert, securityAlertEvents},
		{enum.SourceAuditLog, auditEvents},
	} {
		for _, tree := range batch.events {
			outcome.eventsProcessed++

			matched := rule.Evaluate(tree, batch.source, rules, t.ID)
			if matched == nil {
				continue
			}

			user := event.ActingUser(batch.source, tree)
			eventTime := event.ParseTimestamp(event.Timestamp(batch.source, tree))

			result := alertstate.Gate(ctx, o.alertState, log, t.ID, matched.Name, user, matched.Severity, eventTime, now)
			if !result.Admitted {
				continue
			}

			a := alert.Build(tree, batch.source, matched, t.ID, t.Name, now, result.ShouldNotify)
			outcome.alerts = append(outcome.alerts, a)
		}
	}

	log.Debug("tenant run complete",
		zap.String("tenant_id", t.ID),
		zap.Int("events_processed", outcome.eventsProcessed),
		zap.Int("alerts", len(outcome.alerts)),
		zap.Bool("audit_disabled", auditDisabled))

	return outcome
}

// classifySourceResult applies the classified-vs-transient distinction to a
// single source's fetch outcome: a *upstream.ClassifiedError is re-raised
// so the caller can fail the tenant, anything else is logged and degrades
// to an empty event list.
func classifySourceResult(log *zap.Logger, tenantID string, result sourceResult) ([]event.Tree, error) {
	if result.err == nil {
		return result.events, nil
	}
	var classified *upstream.ClassifiedError
	if errors.As(result.err, &classified) {
		return nil, classified
	}
	log.Warn("source fetch failed, degrading to empty events",
		zap.String("tenant_id", tenantID), zap.String("source", string(result.source)), zap.Error(result.err))
	return nil, nil
}
