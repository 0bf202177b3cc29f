// Package rule holds the declarative detection type, its catalog loader and
// the evaluator that matches events against a rule set.
package rule

import "github.com/vigilrun/vigil/internal/enum"

// Condition is a single {field, operator, value} triple evaluated against a
// dotted path of an event.
type Condition struct {
	Field    string        `yaml:"field" json:"field"`
	Operator enum.Operator `yaml:"operator" json:"operator"`
	Value    string        `yaml:"value" json:"value"`
}

// Conditions is a rule's condition block: a match mode plus the list of
// conditions it aggregates.
type Conditions struct {
	Match enum.MatchMode `yaml:"match" json:"match"`
	Rules []Condition    `yaml:"rules" json:"rules"`
}

// Authoring carries optional informational metadata about who wrote a rule
// and which external detection frameworks it maps to. Never evaluated.
type Authoring struct {
	Author        string   `yaml:"author,omitempty" json:"author,omitempty"`
	FrameworkTags []string `yaml:"frameworkTags,omitempty" json:"frameworkTags,omitempty"`
}

// Rule is a declarative detection loaded from the rule catalog.
type Rule struct {
	// ID is derived from the rule's location in the catalog: a
	// forward-slash path, relative to the catalog root, with the document
	// extension stripped. Stable across runs as long as the document isn't
	// moved.
	ID string `json:"id"`

	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Severity    enum.Severity   `yaml:"severity" json:"severity"`
	Enabled     bool            `yaml:"enabled" json:"enabled"`
	Source      enum.SourceType `yaml:"source" json:"source"`

	Conditions Conditions  `yaml:"conditions" json:"conditions"`
	Exceptions []Condition `yaml:"exceptions,omitempty" json:"exceptions,omitempty"`

	// TenantIDs, when non-empty, restricts the rule to those tenants only.
	TenantIDs []string `yaml:"tenantIds,omitempty" json:"tenantIds,omitempty"`

	Authoring Authoring `yaml:"authoring,omitempty" json:"authoring,omitempty"`
}

// InScope reports whether the rule applies to tenantID. A rule with no
// TenantIDs applies to every tenant, including when tenantID is empty
// (no caller-supplied tenant). A rule with a non-empty TenantIDs but no
// caller-supplied tenantID is out of scope.
func (r *Rule) InScope(tenantID string) bool {
	if len(r.TenantIDs) == 0 {
		return true
	}
	if tenantID == "" {
		return false
	}
	for _, id := range r.TenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}
