package rule_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/rule"
)

type fakeCatalog struct {
	docs []rule.Document
}

func (f *fakeCatalog) List(ctx context.Context) ([]rule.Document, error) {
	return f.docs, nil
}

const validDoc = `
name: Impossible travel sign-in
description: Flags a sign-in from an unusual location shortly after another.
severity: High
enabled: true
source: SignIn
conditions:
  match: all
  rules:
    - field: riskLevelDuringSignIn
      operator: equals
      value: high
`

func TestLoadAcceptsValidDocument(t *testing.T) {
	cat := &fakeCatalog{docs: []rule.Document{
		{Path: "identity/impossible-travel.yaml", Data: []byte(validDoc)},
	}}

	rules, err := rule.Load(context.Background(), cat, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "identity/impossible-travel", rules[0].ID)
	assert.Equal(t, "Impossible travel sign-in", rules[0].Name)
}

func TestLoadSkipsInvalidDocumentsWithoutFailing(t *testing.T) {
	cat := &fakeCatalog{docs: []rule.Document{
		{Path: "good.yaml", Data: []byte(validDoc)},
		{Path: "bad-severity.yaml", Data: []byte(`
name: broken
description: bad severity value
severity: Extreme
enabled: true
source: SignIn
conditions:
  match: all
  rules:
    - field: a
      operator: exists
`)},
		{Path: "empty.yaml", Data: []byte("")},
	}}

	rules, err := rule.Load(context.Background(), cat, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].ID)
}

func TestLoadDerivesIDFromNestedPath(t *testing.T) {
	cat := &fakeCatalog{docs: []rule.Document{
		{Path: "identity/privileged/role-assignment.yml", Data: []byte(validDoc)},
	}}

	rules, err := rule.Load(context.Background(), cat, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "identity/privileged/role-assignment", rules[0].ID)
}
