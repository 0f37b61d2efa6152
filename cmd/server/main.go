package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankvoiceai/platform/modules/admin"
	"github.com/bankvoiceai/platform/modules/billing"
	convomod "github.com/bankvoiceai/platform/modules/conversation"
	"github.com/bankvoiceai/platform/pkg/audit"
	"github.com/bankvoiceai/platform/pkg/clientip"
	"github.com/bankvoiceai/platform/pkg/config"
	"github.com/bankvoiceai/platform/pkg/email"
	"github.com/bankvoiceai/platform/pkg/fetledger"
	"github.com/bankvoiceai/platform/pkg/httpserver"
	"github.com/bankvoiceai/platform/pkg/logger"
	"github.com/bankvoiceai/platform/pkg/opensearch"
	"github.com/bankvoiceai/platform/pkg/pg"
	"github.com/bankvoiceai/platform/pkg/ratelimit"
	"github.com/bankvoiceai/platform/pkg/redis"
	"github.com/bankvoiceai/platform/pkg/requestid"
	"github.com/bankvoiceai/platform/pkg/webhook"
	convo "github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
	"github.com/bankvoiceai/platform/svc/tenant"
)

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, cfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	catalog := subscription.DefaultCatalog()
	if cfg.Subscription.CatalogPath != "" {
		if catalog, err = subscription.LoadCatalog(cfg.Subscription.CatalogPath); err != nil {
			return fmt.Errorf("load plan catalog: %w", err)
		}
	}

	// Redis is the source of truth for subscriptions; the cache keeps the
	// per-call credential check off the network.
	subStore := subscription.NewCachedStore(subscription.NewRedisStore(rdb), cfg.SubscriptionCacheTTL)
	registry := subscription.NewRegistry(subStore, catalog, cfg.Subscription.CredentialSecret,
		subscription.WithLogger(log))

	quota, err := ratelimit.NewQuota(ratelimit.NewRedisStore(rdb),
		ratelimit.WithRetention(cfg.QuotaRetention))
	if err != nil {
		return fmt.Errorf("create quota: %w", err)
	}
	gate := tenant.NewGate(subStore, quota, catalog, tenant.WithLogger(log))

	auditor, auditPG, closeAudit, err := buildAuditTrail(ctx, cfg, pool, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	ledger, err := fetledger.NewClientFromConfig(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("create ledger client: %w", err)
	}
	verifier := fetledger.NewVerifier(ledger, cfg.Ledger.Denom,
		fetledger.WithAttempts(cfg.Ledger.VerifyAttempts),
		fetledger.WithLogger(log))

	notifierOpts := []payment.NotifierOption{
		payment.WithWebhookSender(webhook.NewSender(), cfg.WebhookSigningSecret),
		payment.WithNotifierLogger(log),
	}
	if cfg.Email.PostmarkServerToken != "" {
		mailer, err := email.NewPostmarkClient(cfg.Email)
		if err != nil {
			return fmt.Errorf("create postmark client: %w", err)
		}
		notifierOpts = append(notifierOpts, payment.WithMailer(mailer))
	}

	payments := payment.NewService(verifier, registry, payment.NewPGStore(pool), cfg.Payment,
		payment.WithNotifier(payment.NewNotifier(notifierOpts...)),
		payment.WithLogger(log))

	sessions := convo.NewManager(
		convo.NewRedisSessionStore(rdb, cfg.Conversation.SessionTTL, cfg.Conversation.EndedRetention),
		convo.WithManagerLogger(log))

	var classifier convo.Classifier = convo.KeywordClassifier{}
	if cfg.Conversation.ASIOneAPIKey != "" {
		classifier = convo.NewLLMClassifier(cfg.Conversation.ASIOneAPIKey, cfg.Conversation.ASIOneAPIURL, cfg.Conversation.ASIOneModel,
			convo.WithClassifierLogger(log))
	}
	router := convo.NewRouter(sessions, classifier, cfg.Conversation.BankName,
		convo.WithRouterLogger(log))

	throttle, err := ratelimit.NewFixedWindow(ratelimit.NewRedisStore(rdb), cfg.PaymentRateLimit, time.Minute)
	if err != nil {
		return fmt.Errorf("create payment throttle: %w", err)
	}

	billingSvc := billing.NewService(payments, registry, gate,
		billing.WithAuditLogger(auditor),
		billing.WithAuditReader(auditPG),
		billing.WithPublicThrottle(throttle),
		billing.WithLogger(log))
	convSvc := convomod.NewService(router, gate,
		convomod.WithAuditLogger(auditor),
		convomod.WithLogger(log))
	adminSvc := admin.NewService(registry, payments, sessions, cfg.OperatorSecretHash,
		admin.WithAuditLogger(auditor),
		admin.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(rdb)))
	billingSvc.Register(r)
	convSvc.Register(r)
	r.Mount("/admin", adminSvc.Handle())

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("listening",
				slog.String("addr", cfg.HTTP.Addr),
				slog.String("environment", cfg.Environment))
		}))
	return srv.Run(ctx, r)
}

// buildAuditTrail assembles the audit write path: Postgres always, OpenSearch
// and S3 archival when configured, all behind one batching writer. The
// returned Postgres storage doubles as the reader for the tenant audit-log
// endpoint; the close func flushes buffered events during shutdown.
func buildAuditTrail(ctx context.Context, cfg appConfig, pool *pgxpool.Pool, log *slog.Logger) (*audit.Logger, *audit.PostgresStorage, func(), error) {
	auditPG := audit.NewPostgresStorage(pool)
	sinks := []audit.Storage{auditPG}

	if cfg.AuditSearchEnabled {
		var osCfg opensearch.Config
		if err := config.Load(&osCfg); err != nil {
			return nil, nil, nil, fmt.Errorf("load opensearch config: %w", err)
		}
		osClient, err := opensearch.New(ctx, osCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect opensearch: %w", err)
		}
		sinks = append(sinks, audit.NewOpenSearchStorage(osClient, cfg.AuditSearchIndex))
	}

	if cfg.AuditArchiveBucket != "" {
		awsOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AuditArchiveRegion)}
		if cfg.AuditArchiveAccessKey != "" && cfg.AuditArchiveSecretKey != "" {
			awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AuditArchiveAccessKey, cfg.AuditArchiveSecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AuditArchiveEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AuditArchiveEndpoint)
				// Self-hosted endpoints resolve buckets by path, not subdomain.
				o.UsePathStyle = true
			}
		})
		sinks = append(sinks, audit.NewS3Archiver(client, cfg.AuditArchiveBucket))
	}

	writer := audit.NewAsyncWriter(audit.Fanout(sinks...), audit.AsyncOptions{})
	auditor := audit.NewLogger(writer,
		audit.WithExtractors(
			audit.TenantExtractor(tenant.IDFromContext),
			audit.RequestIDExtractor(requestid.FromContext),
			audit.ClientIPExtractor(clientip.FromContext),
		),
		audit.WithLogger(log))

	closeAudit := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := writer.Close(flushCtx); err != nil {
			log.Error("audit writer close", logger.Error(err))
		}
	}
	return auditor, auditPG, closeAudit, nil
}
