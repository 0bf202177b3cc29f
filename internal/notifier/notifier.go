package notifier

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/alert"
	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/logger"
)

// Notifier delivers the per-run alert batch to the chat webhook and,
// optionally, the operator email digest.
type Notifier struct {
	config Config
	http   *http.Client
	email  *emailDigest
}

func New(config Config) *Notifier {
	n := &Notifier{config: config, http: &http.Client{Timeout: 10 * time.Second}}
	if config.EmailDigest != nil && config.EmailDigest.Enabled {
		n.email = newEmailDigest(*config.EmailDigest)
	}
	return n
}

// Notify implements spec §4.9 steps 1-5: the webhook gate, the
// minimum-severity and shouldNotify filters, tenant grouping, and delivery.
// The optional email digest runs independently of the webhook outcome; a
// digest failure never blocks or is blocked by the webhook path.
func (n *Notifier) Notify(ctx context.Context, alerts []alert.Alert) error {
	ctx = logger.WithComponent(ctx, "notifier")
	log := logger.GetLogger(ctx)

	if n.email != nil {
		if err := n.email.send(ctx, alerts); err != nil {
			log.Warn("email digest failed", zap.Error(err))
		}
	}

	if !n.config.Enabled || n.config.WebhookURL == "" {
		return nil
	}

	notifiable := filter(alerts, n.config.MinimumSeverity)
	if len(notifiable) == 0 {
		return nil
	}

	c := buildCard(notifiable, time.Now())
	if err := postWebhook(ctx, n.http, n.config.WebhookURL, c); err != nil {
		log.Warn("webhook post failed", zap.Error(err))
		return err
	}
	return nil
}

// filter keeps alerts at or above the minimum severity whose ShouldNotify
// flag is not explicitly false.
func filter(alerts []alert.Alert, minimum enum.Severity) []alert.Alert {
	out := make([]alert.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.Severity.AtLeast(minimum) {
			continue
		}
		if !a.ShouldNotify {
			continue
		}
		out = append(out, a)
	}
	return out
}
