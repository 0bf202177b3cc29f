// Package alert holds the Alert record emitted when a rule matches and the
// dedup layer admits the event, and the construction helper that ties
// event extraction, the matched rule and the alert-state outcome together.
package alert

import (
	"time"

	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/event"
	"github.com/vigilrun/vigil/internal/rule"
)

// Alert is emitted when a rule matches and the dedup layer admits the
// event. Immutable once constructed.
type Alert struct {
	TimeGenerated time.Time `json:"timeGenerated"`
	TimeProcessed time.Time `json:"timeProcessed"`

	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`

	ActingUser string `json:"actingUser"`

	RuleName    string        `json:"ruleName"`
	Severity    enum.Severity `json:"severity"`
	Description string        `json:"description"`

	Source        enum.SourceType `json:"source"`
	SourceEventID string          `json:"sourceEventId"`
	RawSummary    string          `json:"rawSummary"`

	ShouldNotify bool `json:"shouldNotify"`
}

// Build assembles an Alert from a matched rule and its source event. It
// performs the per-source field extraction described in spec §4.7 but does
// not itself consult the alert-state store; callers combine it with an
// alertstate.Outcome once dedup has admitted the event.
func Build(tree event.Tree, source enum.SourceType, matched *rule.Rule, tenantID, tenantName string, timeProcessed time.Time, shouldNotify bool) Alert {
	return Alert{
		TimeGenerated: event.ParseTimestamp(event.Timestamp(source, tree)),
		TimeProcessed: timeProcessed,
		TenantID:      tenantID,
		TenantName:    tenantName,
		ActingUser:    event.ActingUser(source, tree),
		RuleName:      matched.Name,
		Severity:      matched.Severity,
		Description:   matched.Description,
		Source:        source,
		SourceEventID: event.ID(source, tree),
		RawSummary:    event.Summarize(source, tree),
		ShouldNotify:  shouldNotify,
	}
}
