package event

import (
	"fmt"
	"time"

	"github.com/vigilrun/vigil/internal/enum"
)

// ActingUser extracts the identity responsible for the event, per source:
// SignIn -> userPrincipalName, AuditLog -> UserId, SecurityAlert -> "".
// The empty string is itself a valid key (a rule with no acting user keys
// off the empty string).
func ActingUser(source enum.SourceType, tree Tree) string {
	switch source {
	case enum.SourceSignIn:
		return Stringify(Get(tree, "userPrincipalName"))
	case enum.SourceAuditLog:
		return Stringify(Get(tree, "UserId"))
	case enum.SourceSecurityAlert:
		return ""
	default:
		return ""
	}
}

// Timestamp extracts the source event time, per source: SignIn/SecurityAlert
// -> createdDateTime, AuditLog -> CreationTime.
func Timestamp(source enum.SourceType, tree Tree) string {
	switch source {
	case enum.SourceAuditLog:
		return Stringify(Get(tree, "CreationTime"))
	default:
		return Stringify(Get(tree, "createdDateTime"))
	}
}

// ID extracts the source event identifier, per source: AuditLog -> Id,
// others -> id.
func ID(source enum.SourceType, tree Tree) string {
	switch source {
	case enum.SourceAuditLog:
		return Stringify(Get(tree, "Id"))
	default:
		return Stringify(Get(tree, "id"))
	}
}

const maxSummaryLength = 500

// Summarize builds a concise, source-specific single line capturing the most
// salient fields of an event - never the entire event - bounded to 500
// characters per spec §4.7.
func Summarize(source enum.SourceType, tree Tree) string {
	var s string
	switch source {
	case enum.SourceSignIn:
		s = fmt.Sprintf("sign-in %s by %s to %s (risk=%s)",
			Stringify(Get(tree, "id")),
			Stringify(Get(tree, "userPrincipalName")),
			Stringify(Get(tree, "appDisplayName")),
			Stringify(Get(tree, "riskLevelAggregated")))
	case enum.SourceSecurityAlert:
		s = fmt.Sprintf("security alert %s: %s (%s, severity=%s)",
			Stringify(Get(tree, "id")),
			Stringify(Get(tree, "title")),
			Stringify(Get(tree, "category")),
			Stringify(Get(tree, "severity")))
	case enum.SourceAuditLog:
		s = fmt.Sprintf("audit %s: %s by %s on %s",
			Stringify(Get(tree, "Id")),
			Stringify(Get(tree, "Operation")),
			Stringify(Get(tree, "UserId")),
			Stringify(Get(tree, "Workload")))
	default:
		s = Stringify(tree)
	}

	if len(s) > maxSummaryLength {
		return s[:maxSummaryLength]
	}
	return s
}

// timestampLayouts are the handful of encodings the three upstream sources
// use for their timestamp fields (RFC3339, with or without fractional
// seconds, and a bare date-time with no zone).
var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}

// ParseTimestamp parses a raw source timestamp, falling back to the zero
// time for anything unrecognized rather than failing the whole event on a
// cosmetic field.
func ParseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
