package rule

import (
	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/event"
)

// Evaluate matches an event against rules in order and returns the first
// rule that matches, or nil if none do (spec §4.5). Rules are filtered to
// those that are enabled, scoped to the given source type, and in scope for
// tenantID before their conditions are even considered; tenantID may be
// empty when the caller has no tenant context.
func Evaluate(tree event.Tree, source enum.SourceType, rules []*Rule, tenantID string) *Rule {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.Source != source {
			continue
		}
		if !r.InScope(tenantID) {
			continue
		}
		if !matches(tree, r.Conditions) {
			continue
		}
		if vetoed(tree, r.Exceptions) {
			continue
		}
		return r
	}
	return nil
}

// matches applies a rule's condition block to tree under its match mode.
// An empty condition list never matches (there is nothing to match all or
// any of), which keeps a misconfigured rule inert rather than universally
// true.
func matches(tree event.Tree, c Conditions) bool {
	if len(c.Rules) == 0 {
		return false
	}

	switch c.Match {
	case enum.MatchAny:
		for _, cond := range c.Rules {
			if evalCondition(tree, cond) {
				return true
			}
		}
		return false
	default: // enum.MatchAll
		for _, cond := range c.Rules {
			if !evalCondition(tree, cond) {
				return false
			}
		}
		return true
	}
}

// vetoed reports whether any exception condition fires. Exceptions are
// always OR'd together: a single match is enough to veto an otherwise
// matching rule (spec §4.5).
func vetoed(tree event.Tree, exceptions []Condition) bool {
	for _, cond := range exceptions {
		if evalCondition(tree, cond) {
			return true
		}
	}
	return false
}

func evalCondition(tree event.Tree, cond Condition) bool {
	actual := event.Get(tree, cond.Field)
	expected := event.Interpolate(tree, cond.Value)
	return event.Apply(string(cond.Operator), actual, expected)
}
