package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vigilrun/vigil/internal/event"
)

// DefaultAuditContentTypes are the Office 365 Management Activity API
// content types subscribed to on first use of a tenant.
var DefaultAuditContentTypes = []string{
	"Audit.AzureActiveDirectory",
	"Audit.Exchange",
	"Audit.SharePoint",
	"Audit.General",
}

// AuditLogClient fetches audit-activity events. Unlike the other two
// sources it must bootstrap an idempotent subscription per content type
// before its first fetch for a tenant.
type AuditLogClient struct {
	baseFetcher
	contentTypes []string
}

func NewAuditLogClient(baseURL string, credentials *CredentialCache, contentTypes []string) *AuditLogClient {
	if len(contentTypes) == 0 {
		contentTypes = DefaultAuditContentTypes
	}
	return &AuditLogClient{
		baseFetcher:  newBaseFetcher(baseURL, credentials),
		contentTypes: contentTypes,
	}
}

func (c *AuditLogClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]event.Tree, error) {
	for _, contentType := range c.contentTypes {
		if err := c.ensureSubscription(ctx, tenantID, contentType); err != nil {
			return nil, err
		}
	}

	query := url.Values{
		"startTime": {since.UTC().Format("2006-01-02T15:04:05")},
		"endTime":   {now.UTC().Format("2006-01-02T15:04:05")},
	}

	rows, err := c.fetchPages(ctx, tenantID, "/activity/feed/subscriptions/content", query)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// ensureSubscription starts the content-type subscription. It is
// idempotent: the upstream API answers "already enabled" with a 400 that
// must not be treated as failure.
func (c *AuditLogClient) ensureSubscription(ctx context.Context, tenantID, contentType string) error {
	ts, err := c.credentials.TokenSource(ctx, tenantID)
	if err != nil {
		return err
	}
	token, err := ts.Token()
	if err != nil {
		return fmt.Errorf("acquire upstream token: %w", err)
	}

	requestURL := c.baseURL + "/activity/feed/subscriptions/start?contentType=" + url.QueryEscape(contentType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token.Type()+" "+token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("start audit subscription for %s: %w", contentType, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "already enabled") {
		return nil
	}

	return classifyAuditBootstrapError(resp.StatusCode, string(body))
}
