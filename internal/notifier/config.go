// Package notifier renders and delivers the per-run alert batch: a
// mandatory chat webhook card, and an optional operator email digest.
package notifier

import "github.com/vigilrun/vigil/internal/enum"

// Config is the delivery configuration spec §4.9 takes as input.
type Config struct {
	Enabled         bool
	WebhookURL      string
	MinimumSeverity enum.Severity

	// EmailDigest, when non-nil, additionally renders and sends an
	// operator-facing HTML digest of the run. This is supplemental to
	// the mandatory chat webhook and never blocks it.
	EmailDigest *EmailConfig
}

// EmailConfig configures the optional SendGrid digest channel.
type EmailConfig struct {
	Enabled   bool
	APIKey    string
	FromEmail string
	FromName  string
	To        []string
}
