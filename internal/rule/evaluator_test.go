package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/event"
	"github.com/vigilrun/vigil/internal/rule"
)

func tree(t *testing.T, raw string) event.Tree {
	t.Helper()
	tr, err := event.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tr
}

func mustRule(opts ...func(*rule.Rule)) *rule.Rule {
	r := &rule.Rule{
		Enabled: true,
		Source:  enum.SourceSignIn,
		Conditions: rule.Conditions{
			Match: enum.MatchAll,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func TestEvaluateMatchAllRequiresEveryCondition(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high","location":{"countryOrRegion":"RU"}}`)

	r := mustRule(func(r *rule.Rule) {
		r.Conditions.Rules = []rule.Condition{
			{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"},
			{Field: "location.countryOrRegion", Operator: enum.OperatorEquals, Value: "US"},
		}
	})

	assert.Nil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, ""))
}

func TestEvaluateMatchAnySucceedsOnFirstHit(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"low","location":{"countryOrRegion":"RU"}}`)

	r := mustRule(func(r *rule.Rule) {
		r.Conditions.Match = enum.MatchAny
		r.Conditions.Rules = []rule.Condition{
			{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"},
			{Field: "location.countryOrRegion", Operator: enum.OperatorEquals, Value: "RU"},
		}
	})

	got := rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, "")
	assert.Same(t, r, got)
}

func TestEvaluateExceptionVetoesAMatch(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high","userPrincipalName":"svc-backup@example.com"}`)

	r := mustRule(func(r *rule.Rule) {
		r.Conditions.Rules = []rule.Condition{
			{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"},
		}
		r.Exceptions = []rule.Condition{
			{Field: "userPrincipalName", Operator: enum.OperatorContains, Value: "svc-"},
		}
	})

	assert.Nil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, ""))
}

func TestEvaluateReturnsFirstMatchingRuleInOrder(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high"}`)

	first := mustRule(func(r *rule.Rule) {
		r.Name = "first"
		r.Conditions.Rules = []rule.Condition{{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"}}
	})
	second := mustRule(func(r *rule.Rule) {
		r.Name = "second"
		r.Conditions.Rules = []rule.Condition{{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"}}
	})

	got := rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{first, second}, "")
	assert.Equal(t, "first", got.Name)
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high"}`)

	r := mustRule(func(r *rule.Rule) {
		r.Enabled = false
		r.Conditions.Rules = []rule.Condition{{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"}}
	})

	assert.Nil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, ""))
}

func TestEvaluateSkipsMismatchedSource(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high"}`)

	r := mustRule(func(r *rule.Rule) {
		r.Conditions.Rules = []rule.Condition{{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"}}
	})

	assert.Nil(t, rule.Evaluate(ev, enum.SourceAuditLog, []*rule.Rule{r}, ""))
}

func TestEvaluateRespectsTenantScope(t *testing.T) {
	ev := tree(t, `{"riskLevelDuringSignIn":"high"}`)

	r := mustRule(func(r *rule.Rule) {
		r.TenantIDs = []string{"tenant-a"}
		r.Conditions.Rules = []rule.Condition{{Field: "riskLevelDuringSignIn", Operator: enum.OperatorEquals, Value: "high"}}
	})

	assert.Nil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, "tenant-b"))
	assert.NotNil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, "tenant-a"))
}

func TestEvaluateConditionValueIsInterpolated(t *testing.T) {
	ev := tree(t, `{"Operation":"User promoted to Global Administrator role","TargetRole":"Global Administrator"}`)

	r := mustRule(func(r *rule.Rule) {
		r.Source = enum.SourceAuditLog
		r.Conditions.Rules = []rule.Condition{
			{Field: "Operation", Operator: enum.OperatorContains, Value: "{{TargetRole}}"},
		}
	})

	assert.Same(t, r, rule.Evaluate(ev, enum.SourceAuditLog, []*rule.Rule{r}, ""))
}

func TestEvaluateEmptyConditionsNeverMatch(t *testing.T) {
	ev := tree(t, `{}`)

	r := mustRule()
	assert.Nil(t, rule.Evaluate(ev, enum.SourceSignIn, []*rule.Rule{r}, ""))
}
