package notifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vigilrun/vigil/internal/alert"
)

// emailDigest renders and sends an operator-facing HTML summary of a run's
// alert batch via SendGrid. It is supplemental to the mandatory chat
// webhook and its failures are never fatal to a run.
type emailDigest struct {
	cfg    EmailConfig
	client *sendgrid.Client
}

func newEmailDigest(cfg EmailConfig) *emailDigest {
	return &emailDigest{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey)}
}

func hermesConfig() hermes.Hermes {
	return hermes.Hermes{
		Theme: new(hermes.Default),
		Product: hermes.Product{
			Name:      "Vigil",
			Link:      "https://vigil.run",
			Copyright: "© Vigil. All rights reserved.",
		},
	}
}

// send renders a per-tenant table of the run's alerts and emails it to the
// configured recipients. A nil or empty batch still sends a "no alerts"
// digest so operators know the run completed.
func (d *emailDigest) send(ctx context.Context, alerts []alert.Alert) error {
	if len(d.cfg.To) == 0 {
		return fmt.Errorf("email digest: no recipients configured")
	}

	subject, htmlBody, err := renderDigest(alerts)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	from := mail.NewEmail(d.cfg.FromName, d.cfg.FromEmail)
	personalization := mail.NewPersonalization()
	for _, to := range d.cfg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}

	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = subject
	m.AddPersonalizations(personalization)
	m.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := d.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func renderDigest(alerts []alert.Alert) (subject, html string, err error) {
	byTenant := make(map[string]int)
	for _, a := range alerts {
		byTenant[a.TenantName]++
	}
	tenantNames := make([]string, 0, len(byTenant))
	for name := range byTenant {
		tenantNames = append(tenantNames, name)
	}
	sort.Strings(tenantNames)

	rows := make([][]hermes.Entry, 0, len(tenantNames))
	for _, name := range tenantNames {
		rows = append(rows, []hermes.Entry{
			{Key: "Tenant", Value: name},
			{Key: "Alerts", Value: fmt.Sprintf("%d", byTenant[name])},
		})
	}

	if len(alerts) == 1 {
		subject = "Vigil: 1 alert this run"
	} else {
		subject = fmt.Sprintf("Vigil: %d alerts this run", len(alerts))
	}

	h := hermesConfig()
	email := hermes.Email{
		Body: hermes.Body{
			Title: "Vigil run digest",
			Intros: []string{
				fmt.Sprintf("This run produced %d alert(s) across %d tenant(s).", len(alerts), len(tenantNames)),
			},
			Table: hermes.Table{Data: rows},
		},
	}

	html, err = h.GenerateHTML(email)
	if err != nil {
		return "", "", err
	}
	return subject, html, nil
}
