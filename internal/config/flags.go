package config

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vigilrun/vigil/internal/enum"
)

// Flags is the shared set of CLI flags for every subcommand that needs a
// Config (run, once). Each mirrors a VIGIL_*-prefixed environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "tenant-id", Usage: "MSP Azure AD tenant id", EnvVars: []string{"VIGIL_TENANT_ID"}},
		&cli.StringFlag{Name: "client-id", Usage: "MSP application client id", EnvVars: []string{"VIGIL_CLIENT_ID"}},
		&cli.StringFlag{Name: "client-secret", Usage: "MSP application client secret (omit to use workload identity federation)", EnvVars: []string{"VIGIL_CLIENT_SECRET"}},
		&cli.StringFlag{Name: "signing-key-path", Usage: "PEM private key used to sign the federated client assertion", EnvVars: []string{"VIGIL_SIGNING_KEY_PATH"}},

		&cli.StringFlag{Name: "database", Usage: "tenant directory connection string (sqlite://... or postgresql://...)", Value: "sqlite://./data/vigil.db", EnvVars: []string{"VIGIL_DATABASE"}},
		&cli.StringFlag{Name: "redis-url", Usage: "redis connection string backing the alert-state dedup/throttle store", Value: "redis://localhost:6379/0", EnvVars: []string{"VIGIL_REDIS_URL"}},
		&cli.StringSliceFlag{Name: "etcd-endpoints", Usage: "etcd endpoints for the distributed scheduler lock and run history; empty runs single-instance", EnvVars: []string{"VIGIL_ETCD_ENDPOINTS"}},

		&cli.DurationFlag{Name: "poll-interval", Usage: "scheduler tick cadence", Value: 5 * time.Minute, EnvVars: []string{"VIGIL_POLL_INTERVAL"}},
		&cli.DurationFlag{Name: "default-lookback", Usage: "window size when a tenant has no recorded lastPoll", Value: 60 * time.Minute, EnvVars: []string{"VIGIL_DEFAULT_LOOKBACK"}},
		&cli.DurationFlag{Name: "max-lookback", Usage: "clamp on how far behind a tenant's window may fall", Value: 360 * time.Minute, EnvVars: []string{"VIGIL_MAX_LOOKBACK"}},

		&cli.StringFlag{Name: "rule-catalog-path", Usage: "local directory or s3://bucket/prefix rule catalog location", Value: "./rules", EnvVars: []string{"VIGIL_RULE_CATALOG_PATH"}},

		&cli.StringFlag{Name: "sink-endpoint", Usage: "S3-compatible endpoint for the alert sink", EnvVars: []string{"VIGIL_SINK_ENDPOINT"}},
		&cli.StringFlag{Name: "sink-access-key", EnvVars: []string{"VIGIL_SINK_ACCESS_KEY"}},
		&cli.StringFlag{Name: "sink-secret-key", EnvVars: []string{"VIGIL_SINK_SECRET_KEY"}},
		&cli.StringFlag{Name: "sink-bucket", Value: "vigil-alerts", EnvVars: []string{"VIGIL_SINK_BUCKET"}},
		&cli.BoolFlag{Name: "sink-use-ssl", Value: true, EnvVars: []string{"VIGIL_SINK_USE_SSL"}},
		&cli.StringFlag{Name: "sink-rule-id", Usage: "immutable rule id recorded on every uploaded batch", EnvVars: []string{"VIGIL_SINK_RULE_ID"}},
		&cli.StringFlag{Name: "sink-stream", Usage: "stream name the sink uploads under", Value: "security-alerts", EnvVars: []string{"VIGIL_SINK_STREAM"}},

		&cli.BoolFlag{Name: "webhook-enabled", EnvVars: []string{"VIGIL_WEBHOOK_ENABLED"}},
		&cli.StringFlag{Name: "webhook-url", EnvVars: []string{"VIGIL_WEBHOOK_URL"}},
		&cli.StringFlag{Name: "minimum-severity", Value: string(enum.SeverityLow), EnvVars: []string{"VIGIL_MINIMUM_SEVERITY"}},

		&cli.BoolFlag{Name: "email-digest-enabled", EnvVars: []string{"VIGIL_EMAIL_DIGEST_ENABLED"}},
		&cli.StringFlag{Name: "sendgrid-api-key", EnvVars: []string{"VIGIL_SENDGRID_API_KEY"}},
		&cli.StringFlag{Name: "digest-from-email", EnvVars: []string{"VIGIL_DIGEST_FROM_EMAIL"}},
		&cli.StringFlag{Name: "digest-from-name", Value: "Vigil", EnvVars: []string{"VIGIL_DIGEST_FROM_NAME"}},
		&cli.StringSliceFlag{Name: "digest-recipients", EnvVars: []string{"VIGIL_DIGEST_RECIPIENTS"}},

		&cli.StringFlag{Name: "admin-group-id", Usage: "identity group id permitted to administer tenants", EnvVars: []string{"VIGIL_ADMIN_GROUP_ID"}},
		&cli.StringFlag{Name: "ui-client-id", Usage: "client id of the operator-facing UI application", EnvVars: []string{"VIGIL_UI_CLIENT_ID"}},

		&cli.DurationFlag{Name: "run-history-retention", Value: 90 * 24 * time.Hour, EnvVars: []string{"VIGIL_RUN_HISTORY_RETENTION"}},

		&cli.StringFlag{Name: "http-addr", Value: ":8080", EnvVars: []string{"VIGIL_HTTP_ADDR"}},
	}
}

// FromContext builds and validates a Config from a urfave/cli context
// populated via Flags().
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		TenantID:       c.String("tenant-id"),
		ClientID:       c.String("client-id"),
		ClientSecret:   c.String("client-secret"),
		SigningKeyPath: c.String("signing-key-path"),

		Database:      c.String("database"),
		RedisURL:      c.String("redis-url"),
		EtcdEndpoints: c.StringSlice("etcd-endpoints"),

		PollInterval:    c.Duration("poll-interval"),
		DefaultLookback: c.Duration("default-lookback"),
		MaxLookback:     c.Duration("max-lookback"),

		RuleCatalogPath: c.String("rule-catalog-path"),

		SinkEndpoint:  c.String("sink-endpoint"),
		SinkAccessKey: c.String("sink-access-key"),
		SinkSecretKey: c.String("sink-secret-key"),
		SinkBucket:    c.String("sink-bucket"),
		SinkUseSSL:    c.Bool("sink-use-ssl"),
		SinkRuleID:    c.String("sink-rule-id"),
		SinkStream:    c.String("sink-stream"),

		WebhookEnabled:  c.Bool("webhook-enabled"),
		WebhookURL:      c.String("webhook-url"),
		MinimumSeverity: enum.Severity(c.String("minimum-severity")),

		EmailDigestEnabled: c.Bool("email-digest-enabled"),
		SendGridAPIKey:     c.String("sendgrid-api-key"),
		DigestFromEmail:    c.String("digest-from-email"),
		DigestFromName:     c.String("digest-from-name"),
		DigestRecipients:   c.StringSlice("digest-recipients"),

		AdminGroupID: c.String("admin-group-id"),
		UIClientID:   c.String("ui-client-id"),

		RunHistoryRetention: c.Duration("run-history-retention"),

		HTTPAddr: c.String("http-addr"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
