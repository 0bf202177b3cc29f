// Package orchestrator runs one scheduler tick end to end: load rules and
// tenants, fetch and evaluate events per tenant, gate admitted matches
// through the alert-state machine, then ingest, notify, sweep and record
// the run.
package orchestrator

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/alert"
	"github.com/vigilrun/vigil/internal/alertstate"
	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/logger"
	"github.com/vigilrun/vigil/internal/notifier"
	"github.com/vigilrun/vigil/internal/rule"
	"github.com/vigilrun/vigil/internal/runhistory"
	"github.com/vigilrun/vigil/internal/sink"
	"github.com/vigilrun/vigil/internal/tenant"
	"github.com/vigilrun/vigil/internal/upstream"
)

// Clients bundles the three upstream source clients a tenant is fetched
// from each tick.
type Clients struct {
	SignIn        upstream.SourceClient
	SecurityAlert upstream.SourceClient
	AuditLog      upstream.SourceClient
}

// Orchestrator wires every consumed/produced component together for one
// RunOnce invocation.
type Orchestrator struct {
	tenants    tenant.Store
	catalog    rule.Catalog
	alertState alertstate.Store
	clients    Clients
	sink       sink.Sink
	notifier   *notifier.Notifier
	runHistory runhistory.Store

	defaultLookback time.Duration
	maxLookback     time.Duration

	sinkRuleID string
	sinkStream string
}

func New(
	tenants tenant.Store,
	catalog rule.Catalog,
	alertState alertstate.Store,
	clients Clients,
	sink sink.Sink,
	notifier *notifier.Notifier,
	runHistory runhistory.Store,
	defaultLookback, maxLookback time.Duration,
	sinkRuleID, sinkStream string,
) *Orchestrator {
	return &Orchestrator{
		tenants:         tenants,
		catalog:         catalog,
		alertState:      alertState,
		clients:         clients,
		sink:            sink,
		notifier:        notifier,
		runHistory:      runHistory,
		defaultLookback: defaultLookback,
		maxLookback:     maxLookback,
		sinkRuleID:      sinkRuleID,
		sinkStream:      sinkStream,
	}
}

// RunOnce executes spec §4.7 end to end and returns the RunSummary it also
// persists to the run-history store.
func (o *Orchestrator) RunOnce(ctx context.Context) (runhistory.RunSummary, error) {
	log := logger.GetLogger(ctx)
	start := time.Now()

	summary := runhistory.RunSummary{StartTime: start, Status: runhistory.StatusSuccess}

	rules, err := rule.Load(ctx, o.catalog, log)
	if err != nil {
		summary.Status = runhistory.StatusError
		summary.ErrorMessage = "rule catalog load failed: " + err.Error()
		return o.finish(ctx, summary, start)
	}

	tenants, err := o.tenants.List(ctx)
	if err != nil {
		summary.Status = runhistory.StatusError
		summary.ErrorMessage = "tenant directory load failed: " + err.Error()
		return o.finish(ctx, summary, start)
	}

	var tenantErrs *multierror.Error
	var batch []alert.Alert
	summary.ClientsChecked = len(tenants)

	for _, t := range tenants {
		now := time.Now()
		since, until := window(t.LastPoll, now, o.defaultLookback, o.maxLookback)

		outcome := o.runTenant(ctx, t, rules, since, until)
		summary.EventsProcessed += outcome.eventsProcessed

		if outcome.err != nil {
			tenantErrs = multierror.Append(tenantErrs, outcome.err)
			status, message := classifyTenantError(outcome.err)
			if updErr := o.tenants.UpdateStatus(ctx, t.ID, status, message, nil); updErr != nil {
				log.Warn("tenant status update failed", zap.String("tenant_id", t.ID), zap.Error(updErr))
			}
			continue
		}

		batch = append(batch, outcome.alerts...)

		status := enum.TenantStatusSuccess
		message := ""
		if outcome.auditDisabled {
			status, message = enum.TenantStatusAuditLogDisabled, "audit log disabled for this tenant"
		}
		lastPoll := until
		if updErr := o.tenants.UpdateStatus(ctx, t.ID, status, message, &lastPoll); updErr != nil {
			log.Warn("tenant status update failed", zap.String("tenant_id", t.ID), zap.Error(updErr))
		}
	}

	summary.AlertsGenerated = len(batch)

	if err := o.sink.Upload(ctx, o.sinkRuleID, o.sinkStream, batch); err != nil {
		log.Warn("sink upload failed", zap.Error(err))
		summary.Status = runhistory.StatusPartial
		summary.ErrorMessage = appendMessage(summary.ErrorMessage, "sink: "+err.Error())
	}

	if err := o.notifier.Notify(ctx, batch); err != nil {
		log.Warn("notifier failed", zap.Error(err))
		summary.Status = runhistory.StatusPartial
		summary.ErrorMessage = appendMessage(summary.ErrorMessage, "notifier: "+err.Error())
	}

	if err := o.alertState.Sweep(ctx, time.Now()); err != nil {
		log.Warn("alert-state sweep failed", zap.Error(err))
	}

	if tenantErrs.ErrorOrNil() != nil && summary.Status == runhistory.StatusSuccess {
		summary.Status = runhistory.StatusPartial
		summary.ErrorMessage = appendMessage(summary.ErrorMessage, tenantErrs.Error())
	}

	return o.finish(ctx, summary, start)
}

func (o *Orchestrator) finish(ctx context.Context, summary runhistory.RunSummary, start time.Time) (runhistory.RunSummary, error) {
	summary.EndTime = time.Now()
	summary.DurationMs = summary.EndTime.Sub(start).Milliseconds()

	if err := o.runHistory.Append(ctx, summary); err != nil {
		logger.GetLogger(ctx).Warn("failed to persist run summary", zap.Error(err))
	}
	return summary, nil
}

func appendMessage(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}
