// Package upstream implements the three consumed upstream log-source
// clients (spec §6): sign-ins, security alerts and audit log, each
// authenticated per tenant via the shared CredentialCache and exposed
// through the common SourceClient contract.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/vigilrun/vigil/internal/event"
)

// SourceClient fetches events produced in the half-open window [since, now)
// for one tenant. Authentication-class failures are returned as
// *ClassifiedError so the orchestrator can record tenant status; any other
// transient failure is swallowed into an empty slice with a logged warning
// by the caller.
type SourceClient interface {
	FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]event.Tree, error)
}

// pageEnvelope is the OData-style paging envelope the upstream APIs share:
// a page of rows plus an optional link to the next page.
type pageEnvelope struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// baseFetcher is embedded by each concrete client: it owns the HTTP client,
// base URL and per-tenant token source, and walks paginated responses.
type baseFetcher struct {
	baseURL     string
	http        *http.Client
	credentials *CredentialCache
}

func newBaseFetcher(baseURL string, credentials *CredentialCache) baseFetcher {
	return baseFetcher{
		baseURL:     baseURL,
		http:        &http.Client{Timeout: 30 * time.Second},
		credentials: credentials,
	}
}

// fetchPages issues the request at path with query, follows @odata.nextLink
// pagination, and returns the concatenated raw row payloads.
func (f *baseFetcher) fetchPages(ctx context.Context, tenantID, path string, query url.Values) ([]json.RawMessage, error) {
	ts, err := f.credentials.TokenSource(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	next := f.baseURL + path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}

	var rows []json.RawMessage
	for next != "" {
		page, err := f.fetchOnePage(ctx, ts, next)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Value...)
		next = page.NextLink
	}
	return rows, nil
}

func (f *baseFetcher) fetchOnePage(ctx context.Context, ts oauth2.TokenSource, requestURL string) (*pageEnvelope, error) {
	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("acquire upstream token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token.Type()+" "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", requestURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusBadRequest {
		return nil, classifyHTTPError(resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream request to %s failed with status %d", requestURL, resp.StatusCode)
	}

	var page pageEnvelope
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", requestURL, err)
	}
	return &page, nil
}

func decodeRows(raw []json.RawMessage) ([]event.Tree, error) {
	trees := make([]event.Tree, 0, len(raw))
	for _, r := range raw {
		tree, err := event.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode event row: %w", err)
		}
		trees = append(trees, tree)
	}
	return trees, nil
}
