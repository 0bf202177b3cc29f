package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigilrun/vigil/internal/event"
)

func TestOperators(t *testing.T) {
	cases := []struct {
		name     string
		op       string
		actual   event.Tree
		expected event.Tree
		want     bool
	}{
		{"exists true", "exists", "x", nil, true},
		{"exists false on absent", "exists", event.Absent, nil, false},
		{"exists false on null", "exists", nil, nil, false},
		{"equals case insensitive", "equals", "Add Member To Role", "add member to role", true},
		{"equals mismatch", "equals", "foo", "bar", false},
		{"notEquals true", "notEquals", "foo", "bar", true},
		{"notEquals on absent is false", "notEquals", event.Absent, "bar", false},
		{"contains substring", "contains", "User promoted to Global Admin role", "Global Admin", true},
		{"contains case insensitive", "contains", "GLOBAL admin", "global ADMIN", true},
		{"contains miss", "contains", "abc", "xyz", false},
		{"unknown operator is false", "bogus", "x", "x", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, event.Apply(tc.op, tc.actual, tc.expected))
		})
	}
}

func TestNotEqualsAbsentBoundary(t *testing.T) {
	// Boundary from spec §8: notEquals against an absent value is false,
	// even though a naive stringify-then-negate-equals would say true.
	assert.False(t, event.NotEquals(event.Absent, "some-value"))
}
