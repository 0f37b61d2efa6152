package main

import (
	"time"

	"github.com/bankvoiceai/platform/pkg/email"
	"github.com/bankvoiceai/platform/pkg/fetledger"
	"github.com/bankvoiceai/platform/pkg/httpserver"
	"github.com/bankvoiceai/platform/pkg/pg"
	"github.com/bankvoiceai/platform/pkg/redis"
	"github.com/bankvoiceai/platform/svc/conversation"
	"github.com/bankvoiceai/platform/svc/payment"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// appConfig aggregates every configuration section the server needs. Nested
// structs carry their own env tags; see each package's Config for the full
// variable list.
type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // selects log format and level
	ServiceName string `env:"SERVICE_NAME" envDefault:"bankvoiceai"`

	OperatorSecretHash   string `env:"OPERATOR_SECRET_HASH,required"` // bcrypt hash of the operator console secret
	WebhookSigningSecret string `env:"WEBHOOK_SIGNING_SECRET"`        // HMAC key for signing outbound tenant webhooks

	PaymentRateLimit     int           `env:"PAYMENT_RATE_LIMIT" envDefault:"30"`      // unauthenticated payment requests per client IP per minute
	SubscriptionCacheTTL time.Duration `env:"SUBSCRIPTION_CACHE_TTL" envDefault:"30s"` // staleness bound for the in-process subscription cache

	// Day counters feed the usage and analytics reports, so they must stay
	// readable across the widest plan analytics window (365 days), not just
	// until the next daily reset.
	QuotaRetention time.Duration `env:"QUOTA_RETENTION" envDefault:"8760h"`

	AuditSearchEnabled bool   `env:"AUDIT_OPENSEARCH_ENABLED" envDefault:"false"` // mirror audit events into OpenSearch; requires OPENSEARCH_* vars
	AuditSearchIndex   string `env:"AUDIT_OPENSEARCH_INDEX" envDefault:"audit-events"`
	AuditArchiveBucket string `env:"AUDIT_ARCHIVE_BUCKET"` // S3 bucket for NDJSON audit archives; empty disables archival
	AuditArchiveRegion string `env:"AUDIT_ARCHIVE_REGION" envDefault:"us-east-1"`

	// Self-hosted object storage (MinIO and friends) takes an explicit endpoint
	// and static keys; left empty, the SDK's default AWS credential chain runs.
	AuditArchiveEndpoint  string `env:"AUDIT_ARCHIVE_ENDPOINT"`
	AuditArchiveAccessKey string `env:"AUDIT_ARCHIVE_ACCESS_KEY"`
	AuditArchiveSecretKey string `env:"AUDIT_ARCHIVE_SECRET_KEY"`

	HTTP         httpserver.Config
	PG           pg.Config
	Redis        redis.Config
	Subscription subscription.Config
	Payment      payment.Config
	Ledger       fetledger.Config
	Conversation conversation.Config
	Email        email.Config
}
