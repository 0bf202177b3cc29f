package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vigilrun/vigil/internal/event"
	"github.com/vigilrun/vigil/internal/upstream"
)

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func TestSignInClientFollowsPagination(t *testing.T) {
	token := tokenServer(t)
	defer token.Close()

	var api *httptest.Server
	api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{{"id": "b", "userPrincipalName": "b@example.com"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"value":            []map[string]interface{}{{"id": "a", "userPrincipalName": "a@example.com"}},
			"@odata.nextLink":  api.URL + "/auditLogs/signIns?page=2",
		})
	}))
	defer api.Close()

	credentials := upstream.NewCredentialCache(func(tenantID string) (upstream.Credential, error) {
		return upstream.Credential{
			TenantID:     tenantID,
			ClientID:     "client",
			ClientSecret: "secret",
			TokenURL:     token.URL,
		}, nil
	})

	client := upstream.NewSignInClient(api.URL, credentials)

	now := time.Now()
	events, err := client.FetchSince(context.Background(), "tenant-a", now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "a@example.com", event.Get(events[0], "userPrincipalName"))
	require.Equal(t, "b@example.com", event.Get(events[1], "userPrincipalName"))
}
