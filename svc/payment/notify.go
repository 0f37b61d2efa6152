package payment

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bankvoiceai/platform/pkg/email"
	"github.com/bankvoiceai/platform/pkg/webhook"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// Webhook event names delivered to tenant endpoints.
const (
	EventPaymentConfirmed    = "payment.confirmed"
	EventSubscriptionUpdated = "subscription.updated"
)

// WebhookEvent is the envelope posted to a tenant's webhook URL.
type WebhookEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TenantID  string    `json:"tenant_id"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers receipts and webhook events after a durable write.
// Every delivery is best-effort: failures are logged and the business
// decision stands. Endpoints that keep failing are fenced off with a
// per-URL circuit breaker so one dead tenant endpoint cannot slow the
// payment path for everyone.
type Notifier struct {
	mailer email.EmailSender
	sender *webhook.Sender
	secret string
	log    *slog.Logger

	mu       sync.Mutex
	circuits map[string]*webhook.CircuitBreaker
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithMailer enables receipt emails for tenants with a contact address.
func WithMailer(mailer email.EmailSender) NotifierOption {
	return func(n *Notifier) {
		n.mailer = mailer
	}
}

// WithWebhookSender enables signed webhook delivery for tenants with a
// configured URL.
func WithWebhookSender(sender *webhook.Sender, signingSecret string) NotifierOption {
	return func(n *Notifier) {
		n.sender = sender
		n.secret = signingSecret
	}
}

// WithNotifierLogger sets the logger used for delivery failures.
func WithNotifierLogger(log *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// NewNotifier creates a Notifier. With no options it is a silent no-op,
// which keeps the payment service wiring identical in tests and production.
func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		circuits: make(map[string]*webhook.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PaymentConfirmed sends the activation receipt and the payment.confirmed
// event for a verified payment.
func (n *Notifier) PaymentConfirmed(ctx context.Context, sub *subscription.Subscription, rec *Record) {
	n.sendReceipt(ctx, sub, rec)
	n.deliver(ctx, sub, EventPaymentConfirmed, map[string]any{
		"tx_id":      rec.TxID,
		"plan":       rec.Plan,
		"amount_fet": rec.AmountFET,
		"expires_at": sub.ExpiresAt,
	})
}

// SubscriptionUpdated sends the subscription.updated event after a plan or
// lifecycle change.
func (n *Notifier) SubscriptionUpdated(ctx context.Context, sub *subscription.Subscription, change string) {
	n.deliver(ctx, sub, EventSubscriptionUpdated, map[string]any{
		"plan":       sub.Plan,
		"status":     sub.Status,
		"change":     change,
		"expires_at": sub.ExpiresAt,
	})
}

func (n *Notifier) sendReceipt(ctx context.Context, sub *subscription.Subscription, rec *Record) {
	if n.mailer == nil || sub.ContactEmail == "" {
		return
	}

	body, err := renderReceipt(sub, rec)
	if err != nil {
		n.log.ErrorContext(ctx, "failed to render payment receipt",
			slog.String("tenant_id", sub.TenantID),
			slog.Any("error", err))
		return
	}

	err = n.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   sub.ContactEmail,
		Subject:  fmt.Sprintf("BankVoiceAI payment received: %s plan", sub.Plan),
		BodyHTML: body,
		Tag:      "payment-receipt",
	})
	if err != nil {
		n.log.WarnContext(ctx, "failed to send payment receipt",
			slog.String("tenant_id", sub.TenantID),
			slog.Any("error", err))
	}
}

func (n *Notifier) deliver(ctx context.Context, sub *subscription.Subscription, name string, data any) {
	if n.sender == nil || sub.WebhookURL == "" {
		return
	}

	event := WebhookEvent{
		ID:        uuid.NewString(),
		Name:      name,
		TenantID:  sub.TenantID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	opts := []webhook.SendOption{
		webhook.WithHeader("X-BankVoiceAI-Event", name),
		webhook.WithCircuitBreaker(n.circuit(sub.WebhookURL)),
	}
	if n.secret != "" {
		opts = append(opts, webhook.WithSignature(n.secret))
	}

	if err := n.sender.Send(ctx, sub.WebhookURL, event, opts...); err != nil {
		n.log.WarnContext(ctx, "failed to deliver tenant webhook",
			slog.String("tenant_id", sub.TenantID),
			slog.String("event", name),
			slog.Any("error", err))
	}
}

// circuit returns the breaker for an endpoint, creating it on first use.
// Breakers must be shared across deliveries to accumulate failure state.
func (n *Notifier) circuit(endpoint string) *webhook.CircuitBreaker {
	n.mu.Lock()
	defer n.mu.Unlock()

	cb, ok := n.circuits[endpoint]
	if !ok {
		cb = webhook.NewCircuitBreaker(5, 2, time.Minute)
		n.circuits[endpoint] = cb
	}
	return cb
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
<h2>Payment received</h2>
<p>Hi {{.DisplayName}},</p>
<p>Your FET payment has been verified on-chain and your subscription is active.</p>
<table cellpadding="4">
<tr><td>Plan</td><td><strong>{{.Plan}}</strong></td></tr>
<tr><td>Amount</td><td>{{.Amount}} FET</td></tr>
<tr><td>Transaction</td><td><code>{{.TxID}}</code></td></tr>
<tr><td>Active until</td><td>{{.ExpiresAt}}</td></tr>
</table>
<p>The BankVoiceAI team</p>
</body>
</html>`))

func renderReceipt(sub *subscription.Subscription, rec *Record) (string, error) {
	var sb strings.Builder
	err := receiptTmpl.Execute(&sb, map[string]string{
		"DisplayName": sub.DisplayName,
		"Plan":        string(sub.Plan),
		"Amount":      rec.AmountFET,
		"TxID":        rec.TxID,
		"ExpiresAt":   sub.ExpiresAt.Format("2 January 2006"),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
