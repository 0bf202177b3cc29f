package upstream

import (
	"context"
	"net/url"
	"time"

	"github.com/vigilrun/vigil/internal/event"
)

// SignInClient fetches sign-in events.
type SignInClient struct {
	baseFetcher
}

func NewSignInClient(baseURL string, credentials *CredentialCache) *SignInClient {
	return &SignInClient{baseFetcher: newBaseFetcher(baseURL, credentials)}
}

func (c *SignInClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]event.Tree, error) {
	query := url.Values{
		"$filter":  {"createdDateTime ge " + since.UTC().Format(time.RFC3339) + " and createdDateTime lt " + now.UTC().Format(time.RFC3339)},
		"$orderby": {"createdDateTime"},
	}

	rows, err := c.fetchPages(ctx, tenantID, "/auditLogs/signIns", query)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}
