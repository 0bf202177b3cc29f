package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigilrun/vigil/internal/event"
)

func decode(t *testing.T, raw string) event.Tree {
	t.Helper()
	tree, err := event.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tree
}

func TestGetNestedMap(t *testing.T) {
	tree := decode(t, `{"Operation":"Add member to role","InitiatedBy":{"User":{"UserPrincipalName":"Automation@Example"}}}`)

	assert.Equal(t, "Add member to role", event.Get(tree, "Operation"))
	assert.Equal(t, "Automation@Example", event.Get(tree, "InitiatedBy.User.UserPrincipalName"))
}

func TestGetArrayIndex(t *testing.T) {
	tree := decode(t, `{"ModifiedProperties":[{"NewValue":"Global Admin"}]}`)

	assert.Equal(t, "Global Admin", event.Get(tree, "ModifiedProperties.0.NewValue"))
}

func TestGetAbsentCases(t *testing.T) {
	tree := decode(t, `{"a":{"b":null},"arr":[1,2,3]}`)

	assert.True(t, event.IsAbsent(event.Get(tree, "missing")))
	assert.True(t, event.IsAbsent(event.Get(tree, "a.b.c")), "null intermediate short-circuits")
	assert.True(t, event.IsAbsent(event.Get(tree, "arr.notanindex")), "non-integer segment against a sequence")
	assert.True(t, event.IsAbsent(event.Get(tree, "arr.10")), "out of range index")
	assert.True(t, event.IsAbsent(event.Get(tree, "a.0")), "integer segment against a mapping misses")
}

func TestGetNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		event.Get(nil, "a.b.c")
		event.Get("scalar", "a")
		event.Get(42.0, "0")
	})
}

func TestStringifyScalars(t *testing.T) {
	assert.Equal(t, "", event.Stringify(event.Absent))
	assert.Equal(t, "", event.Stringify(nil))
	assert.Equal(t, "true", event.Stringify(true))
	assert.Equal(t, "3.5", event.Stringify(3.5))
	assert.Equal(t, "hello", event.Stringify("hello"))
}
