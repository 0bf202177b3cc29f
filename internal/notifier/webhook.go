package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/vigilrun/vigil/internal/alert"
	"github.com/vigilrun/vigil/internal/enum"
)

// card is the JSON payload posted to the chat webhook: one block per
// tenant, each listing its alerts.
type card struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	AlertCount  int          `json:"alertCount"`
	Tenants     []tenantCard `json:"tenants"`
}

type tenantCard struct {
	TenantName string      `json:"tenantName"`
	Alerts     []alertLine `json:"alerts"`
}

type alertLine struct {
	Severity    enum.Severity `json:"severity"`
	RuleName    string        `json:"ruleName"`
	Description string        `json:"description"`
	User        string        `json:"user,omitempty"`
	Source      string        `json:"source"`
	Time        string        `json:"time"`
}

// buildCard groups alerts by tenant name, ordering the tenant blocks
// alphabetically by name for deterministic output.
func buildCard(alerts []alert.Alert, now time.Time) card {
	order := make([]string, 0)
	byTenant := make(map[string][]alertLine)

	for _, a := range alerts {
		if _, seen := byTenant[a.TenantName]; !seen {
			order = append(order, a.TenantName)
		}
		byTenant[a.TenantName] = append(byTenant[a.TenantName], alertLine{
			Severity:    a.Severity,
			RuleName:    a.RuleName,
			Description: a.Description,
			User:        a.ActingUser,
			Source:      string(a.Source),
			Time:        a.TimeGenerated.Format(time.RFC3339),
		})
	}
	sort.Strings(order)

	tenants := make([]tenantCard, 0, len(order))
	for _, name := range order {
		tenants = append(tenants, tenantCard{TenantName: name, Alerts: byTenant[name]})
	}

	return card{GeneratedAt: now, AlertCount: len(alerts), Tenants: tenants}
}

// postWebhook delivers the card to the configured URL. A non-2xx response
// is reported as an error but never retried within the run.
func postWebhook(ctx context.Context, client *http.Client, url string, c card) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal webhook card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
