package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilrun/vigil/internal/upstream"
)

func TestAuditLogClientTreatsAlreadyEnabledSubscriptionAsSuccess(t *testing.T) {
	token := tokenServer(t)
	defer token.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"The subscription is already enabled. No property change"}}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": []map[string]interface{}{}})
		}
	}))
	defer api.Close()

	credentials := upstream.NewCredentialCache(func(tenantID string) (upstream.Credential, error) {
		return upstream.Credential{TenantID: tenantID, ClientID: "c", ClientSecret: "s", TokenURL: token.URL}, nil
	})

	client := upstream.NewAuditLogClient(api.URL, credentials, []string{"Audit.General"})

	now := time.Now()
	events, err := client.FetchSince(context.Background(), "tenant-a", now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAuditLogClientClassifiesMissingTenantAsAuditLogDisabled(t *testing.T) {
	token := tokenServer(t)
	defer token.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"Tenant realm not found"}}`))
	}))
	defer api.Close()

	credentials := upstream.NewCredentialCache(func(tenantID string) (upstream.Credential, error) {
		return upstream.Credential{TenantID: tenantID, ClientID: "c", ClientSecret: "s", TokenURL: token.URL}, nil
	})

	client := upstream.NewAuditLogClient(api.URL, credentials, []string{"Audit.General"})

	now := time.Now()
	_, err := client.FetchSince(context.Background(), "tenant-a", now.Add(-time.Hour), now)
	require.Error(t, err)

	classified, ok := err.(*upstream.ClassifiedError)
	require.True(t, ok)
	assert.Equal(t, "auditLogDisabled", string(classified.Status))
}
