package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/alertstate"
	"github.com/vigilrun/vigil/internal/config"
	vigildb "github.com/vigilrun/vigil/internal/db"
	"github.com/vigilrun/vigil/internal/etcd"
	"github.com/vigilrun/vigil/internal/httpapi"
	"github.com/vigilrun/vigil/internal/logger"
	"github.com/vigilrun/vigil/internal/notifier"
	"github.com/vigilrun/vigil/internal/objectstore"
	"github.com/vigilrun/vigil/internal/orchestrator"
	"github.com/vigilrun/vigil/internal/rule"
	"github.com/vigilrun/vigil/internal/runhistory"
	"github.com/vigilrun/vigil/internal/scheduler"
	"github.com/vigilrun/vigil/internal/sink"
	"github.com/vigilrun/vigil/internal/tenant"
	"github.com/vigilrun/vigil/internal/upstream"
)

const (
	graphBaseURL      = "https://graph.microsoft.com/v1.0"
	graphScope        = "https://graph.microsoft.com/.default"
	auditBaseURL      = "https://manage.office.com/api/v1.0"
	auditScope        = "https://manage.office.com/.default"
	tokenURLTemplate  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	assertionKeyUsage = "signs the workload-identity-federation client assertion used when no client secret is configured"
)

func main() {
	// A missing .env is expected in production, where configuration comes
	// from the real environment; only local development relies on it.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "vigil",
		Usage:   "Multi-tenant security-event polling and alerting engine",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Start the ticking scheduler and the operator HTTP API",
				Flags: config.Flags(),
				Action: func(c *cli.Context) error {
					return runServer(c)
				},
			},
			{
				Name:  "once",
				Usage: "Run a single tick and exit, for manual invocation or testing",
				Flags: config.Flags(),
				Action: func(c *cli.Context) error {
					return runOnce(c)
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the tenant directory schema",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "database", Value: "sqlite://./data/vigil.db", EnvVars: []string{"VIGIL_DATABASE"}},
				},
				Action: func(c *cli.Context) error {
					return runMigrate(c)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// components bundles every long-lived dependency the run/once paths share,
// along with the function that releases them.
type components struct {
	cfg          config.Config
	orchestrator *orchestrator.Orchestrator
	tenants      tenant.Store
	runHistory   runhistory.Store
	etcdClient   *etcd.Client
	close        func()
}

func buildComponents(ctx context.Context, c *cli.Context) (*components, error) {
	cfg, err := config.FromContext(c)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.GetLogger(ctx)

	conn, driver, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	var etcdClient *etcd.Client
	if len(cfg.EtcdEndpoints) > 0 {
		etcdClient, err = etcd.NewClient(etcd.Config{Endpoints: cfg.EtcdEndpoints})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("connect to etcd: %w", err)
		}
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		closeAll(conn, etcdClient)
		return nil, err
	}

	objClient, err := objectstore.NewClient(&objectstore.Config{
		Endpoint:        cfg.SinkEndpoint,
		Bucket:          cfg.SinkBucket,
		AccessKeyID:     cfg.SinkAccessKey,
		SecretAccessKey: cfg.SinkSecretKey,
		UseSSL:          cfg.SinkUseSSL,
	})
	if err != nil {
		closeAll(conn, etcdClient)
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	clients, err := buildUpstreamClients(cfg)
	if err != nil {
		closeAll(conn, etcdClient)
		return nil, err
	}

	tenants := tenant.NewSQLStore(conn, driver)
	alertState := alertstate.NewRedisStore(redisClient)
	alertSink := sink.NewObjectStoreSink(objClient, "alerts")
	notify := notifier.New(buildNotifierConfig(cfg))

	var runHistory runhistory.Store
	if etcdClient != nil {
		runHistory = runhistory.NewEtcdStore(etcdClient)
	} else {
		log.Warn("no etcd endpoints configured: run history will not be persisted across restarts")
		runHistory = noopRunHistory{}
	}

	orch := orchestrator.New(
		tenants,
		catalog,
		alertState,
		clients,
		alertSink,
		notify,
		runHistory,
		cfg.DefaultLookback,
		cfg.MaxLookback,
		cfg.SinkRuleID,
		cfg.SinkStream,
	)

	return &components{
		cfg:          cfg,
		orchestrator: orch,
		tenants:      tenants,
		runHistory:   runHistory,
		etcdClient:   etcdClient,
		close: func() {
			closeAll(conn, etcdClient)
		},
	}, nil
}

func closeAll(conn *sql.DB, etcdClient *etcd.Client) {
	if conn != nil {
		_ = conn.Close()
	}
	if etcdClient != nil {
		_ = etcdClient.Close()
	}
}

func openDatabase(databaseURL string) (*sql.DB, string, error) {
	driver, _, err := vigildb.ParseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}
	conn, err := vigildb.Open(databaseURL)
	if err != nil {
		return nil, "", err
	}
	return conn, driver, nil
}

func buildCatalog(cfg config.Config) (rule.Catalog, error) {
	if len(cfg.RuleCatalogPath) >= 5 && cfg.RuleCatalogPath[:5] == "s3://" {
		prefix := cfg.RuleCatalogPath[5:]
		objClient, err := objectstore.NewClient(&objectstore.Config{
			Endpoint:        cfg.SinkEndpoint,
			Bucket:          cfg.SinkBucket,
			AccessKeyID:     cfg.SinkAccessKey,
			SecretAccessKey: cfg.SinkSecretKey,
			UseSSL:          cfg.SinkUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create rule catalog object store client: %w", err)
		}
		return rule.NewCatalogS3(objClient, prefix), nil
	}
	return rule.NewCatalogDir(cfg.RuleCatalogPath), nil
}

func buildUpstreamClients(cfg config.Config) (orchestrator.Clients, error) {
	var signer upstream.AssertionSigner
	if cfg.ClientSecret == "" {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(mustReadFile(cfg.SigningKeyPath)))
		if err != nil {
			return orchestrator.Clients{}, fmt.Errorf("parse signing key (%s): %w", assertionKeyUsage, err)
		}
		signer = &upstream.SigningKeyAssertionSigner{Key: key, KeyID: cfg.ClientID}
	}

	factory := func(scopes []string) func(tenantID string) (upstream.Credential, error) {
		return func(tenantID string) (upstream.Credential, error) {
			return upstream.Credential{
				TenantID:     tenantID,
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				Signer:       signer,
				TokenURL:     fmt.Sprintf(tokenURLTemplate, tenantID),
				Scopes:       scopes,
			}, nil
		}
	}

	graphCreds := upstream.NewCredentialCache(factory([]string{graphScope}))
	auditCreds := upstream.NewCredentialCache(factory([]string{auditScope}))

	return orchestrator.Clients{
		SignIn:        upstream.NewSignInClient(graphBaseURL, graphCreds),
		SecurityAlert: upstream.NewSecurityAlertClient(graphBaseURL, graphCreds),
		AuditLog:      upstream.NewAuditLogClient(auditBaseURL, auditCreds, upstream.DefaultAuditContentTypes),
	}, nil
}

func mustReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read signing key %s: %v", path, err)
	}
	return string(data)
}

func buildNotifierConfig(cfg config.Config) notifier.Config {
	nc := notifier.Config{
		Enabled:         cfg.WebhookEnabled,
		WebhookURL:      cfg.WebhookURL,
		MinimumSeverity: cfg.MinimumSeverity,
	}
	if cfg.EmailDigestEnabled {
		nc.EmailDigest = &notifier.EmailConfig{
			Enabled:   true,
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.DigestFromEmail,
			FromName:  cfg.DigestFromName,
			To:        cfg.DigestRecipients,
		}
	}
	return nc
}

func runOnce(c *cli.Context) error {
	ctx, log := logger.PrepareLogger(context.Background())

	comps, err := buildComponents(ctx, c)
	if err != nil {
		return err
	}
	defer comps.close()

	summary, err := comps.orchestrator.RunOnce(ctx)
	if err != nil {
		return err
	}

	log.Info("tick complete",
		zap.String("status", string(summary.Status)),
		zap.Int("events_processed", summary.EventsProcessed),
		zap.Int("alerts_generated", summary.AlertsGenerated))
	return nil
}

func runServer(c *cli.Context) error {
	ctx, log := logger.PrepareLogger(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	comps, err := buildComponents(ctx, c)
	if err != nil {
		return err
	}
	defer comps.close()

	sched := scheduler.New(comps.etcdClient, comps.cfg.PollInterval, func(ctx context.Context) error {
		_, err := comps.orchestrator.RunOnce(ctx)
		if _, sweepErr := comps.runHistory.Sweep(ctx, comps.cfg.RunHistoryRetention, time.Now()); sweepErr != nil {
			log.Warn("run-history sweep failed", zap.Error(sweepErr))
		}
		return err
	})
	sched.Start(ctx)
	defer sched.Stop()

	router := httpapi.NewRouter(httpapi.Deps{
		Tenants:    comps.tenants,
		RunHistory: comps.runHistory,
		Trigger:    sched,
	})

	httpServer := &http.Server{
		Addr:         comps.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("operator API listening", zap.String("addr", comps.cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("operator API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("operator API graceful shutdown failed", zap.Error(err))
	}

	return nil
}

func runMigrate(c *cli.Context) error {
	databaseURL := c.String("database")
	conn, err := vigildb.Open(databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Exec(tenant.Schema); err != nil {
		return fmt.Errorf("apply tenant schema: %w", err)
	}

	log.Println("migration complete")
	return nil
}

// noopRunHistory is used when no etcd endpoints are configured: the
// scheduler and orchestrator still run, but nothing is recorded to query
// later through /runs.
type noopRunHistory struct{}

func (noopRunHistory) Append(ctx context.Context, summary runhistory.RunSummary) error { return nil }
func (noopRunHistory) List(ctx context.Context, limit int) ([]runhistory.RunSummary, error) {
	return nil, nil
}
func (noopRunHistory) Sweep(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	return 0, nil
}
