package upstream

import (
	"context"
	"net/url"
	"time"

	"github.com/vigilrun/vigil/internal/event"
)

// SecurityAlertClient fetches security-alert events.
type SecurityAlertClient struct {
	baseFetcher
}

func NewSecurityAlertClient(baseURL string, credentials *CredentialCache) *SecurityAlertClient {
	return &SecurityAlertClient{baseFetcher: newBaseFetcher(baseURL, credentials)}
}

func (c *SecurityAlertClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]event.Tree, error) {
	query := url.Values{
		"$filter":  {"createdDateTime ge " + since.UTC().Format(time.RFC3339) + " and createdDateTime lt " + now.UTC().Format(time.RFC3339)},
		"$orderby": {"createdDateTime"},
	}

	rows, err := c.fetchPages(ctx, tenantID, "/security/alerts_v2", query)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}
