// Package alertstate implements the two-layer keyed time-bounded state
// machine that suppresses duplicate alerts and throttles repeat
// notifications.
package alertstate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const digestLength = 32

// DedupWindow is the width of the duplicate-suppression window.
const DedupWindow = 5 * 60 // seconds

// ThrottleWindow is the width of the notification-throttle window.
const ThrottleWindow = 60 * 60 // seconds

// digest derives the per-(rule, user) portion of a state key: a
// collision-resistant hash of ruleName and the lowercased user, truncated to
// a fixed length. An empty user hashes the same regardless of case, giving a
// rule with no acting user a single slot per (tenant, rule).
func digest(ruleName, user string) string {
	sum := sha256.Sum256([]byte(ruleName + "|" + strings.ToLower(user)))
	encoded := hex.EncodeToString(sum[:])
	if len(encoded) > digestLength {
		return encoded[:digestLength]
	}
	return encoded
}

func dedupKey(tenantID, ruleName, user string) string {
	return "dedup:" + tenantID + ":" + digest(ruleName, user)
}

func throttleKey(tenantID, ruleName, user string) string {
	return "throttle:" + tenantID + ":" + digest(ruleName, user)
}
