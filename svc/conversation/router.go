package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bankvoiceai/platform/pkg/logger"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// Human-handoff phrases honored on every turn, ahead of any routing.
// Tenant escalation policies extend this list, never shrink it.
var escalationPhrases = []string{
	"human", "agent", "representative", "person", "supervisor",
	"manager", "real person", "talk to someone", "speak to someone",
	"transfer me", "operator", "live agent", "press 0", "zero",
	"speak with", "talk with", "connect me",
}

// negativeWords feed the rule-based sentiment score.
var negativeWords = []string{
	"angry", "furious", "terrible", "ridiculous", "lawsuit",
	"attorney", "lawyer", "complaint", "unacceptable", "incompetent",
	"useless", "disgusting", "fraud", "scam", "stealing",
}

const (
	escalationRequestText   = "I'll transfer you to a human representative right away. Please hold."
	escalationSentimentText = "I understand your frustration and I sincerely apologize. Let me connect you with a senior representative immediately."
)

// TurnInput is one inbound utterance as the voice and chat adapters hand
// it over. CallerID and Locale only matter on the turn that creates the
// session.
type TurnInput struct {
	SessionID string
	Utterance string
	Channel   Channel
	CallerID  string
	Locale    string
}

// Router dispatches each turn of a conversation: honors human-handoff
// requests, classifies the opening utterance, routes to the scripted
// specialist the tenant's plan allows, and layers on the regulatory
// disclosures the tenant's compliance mode requires.
type Router struct {
	sessions   *Manager
	classifier Classifier
	fallback   Classifier
	discl      *Disclosures
	bankName   string
	now        func() time.Time
	log        *slog.Logger
}

// RouterOption configures optional Router settings.
type RouterOption func(*Router)

// WithRouterClock sets the time source, mainly for tests.
func WithRouterClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRouterLogger sets the router logger.
func WithRouterLogger(log *slog.Logger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRouter creates a conversation router. Panics if sessions or classifier
// is nil or bankName is empty. Callers without a hosted model pass
// KeywordClassifier directly.
func NewRouter(sessions *Manager, classifier Classifier, bankName string, opts ...RouterOption) *Router {
	if sessions == nil {
		panic("conversation: session manager cannot be nil")
	}
	if classifier == nil {
		panic("conversation: classifier cannot be nil")
	}

	r := &Router{
		sessions:   sessions,
		classifier: classifier,
		fallback:   KeywordClassifier{},
		discl:      NewDisclosures(bankName),
		bankName:   bankName,
		now:        time.Now,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HandleTurn processes one conversational turn for an authenticated tenant.
// The subscription record carries the compliance mode, escalation policy,
// and enabled capabilities the turn is shaped by; the caller has already
// cleared the access gate.
func (r *Router) HandleTurn(ctx context.Context, sub *subscription.Subscription, in TurnInput) (*Reply, error) {
	utterance := strings.TrimSpace(in.Utterance)
	if utterance == "" {
		return nil, ErrEmptyInput
	}

	session, err := r.sessions.Ensure(ctx, sub.TenantID, in.SessionID, in.Channel, in.CallerID, in.Locale)
	if err != nil {
		return nil, err
	}

	// Human-handoff requests are honored before any routing.
	if reason, ok := r.shouldEscalate(utterance, sub.EscalationPolicy); ok {
		text := escalationRequestText
		if reason == "negative_sentiment" {
			text = escalationSentimentText
		}
		r.log.InfoContext(ctx, "conversation escalated",
			logger.SessionID(session.ID),
			logger.TenantID(sub.TenantID),
			slog.String("reason", reason))
		return r.finishTurn(ctx, sub, session, utterance, session.ActiveSpecialist, "", scriptedReply{
			text:     text,
			escalate: true,
		})
	}

	// The opening utterance picks the specialist; later turns stay put.
	intent := IntentContinuation
	specialist := session.ActiveSpecialist
	if specialist == "" {
		intent = r.classify(ctx, utterance)
		specialist = Route(intent)
	}

	// A specialist the plan has not enabled is never reached; the turn
	// falls back to general customer service instead of failing.
	if !sub.HasCapability(specialist.Capability()) && specialist != SpecialistCustomerService {
		r.log.DebugContext(ctx, "specialist not enabled on plan, routing to customer service",
			logger.TenantID(sub.TenantID),
			logger.Specialist(string(specialist)),
			logger.Plan(string(sub.Plan)))
		specialist = SpecialistCustomerService
	}

	sr := specialist.respond(r.bankName, utterance, session.UserTurns(), session.ID)
	return r.finishTurn(ctx, sub, session, utterance, specialist, intent, sr)
}

// EndSession terminates the tenant's session, recording why.
func (r *Router) EndSession(ctx context.Context, tenantID, sessionID, reason string) (*Session, error) {
	return r.sessions.End(ctx, tenantID, sessionID, reason)
}

// classify asks the hosted model for the intent and falls back to the
// keyword table when the model is unreachable. Classification never fails a
// turn.
func (r *Router) classify(ctx context.Context, utterance string) Intent {
	intent, err := r.classifier.Classify(ctx, utterance)
	if err == nil {
		return intent
	}

	r.log.WarnContext(ctx, "intent classifier failed, using keyword fallback", logger.Error(err))
	intent, err = r.fallback.Classify(ctx, utterance)
	if err != nil {
		return IntentGeneralFAQ
	}
	return intent
}

// shouldEscalate applies the handoff triggers: the built-in phrase list
// extended by the tenant's keywords, then the sentiment threshold. A zero
// threshold disables sentiment escalation; neutral turns score zero and
// must never trip it.
func (r *Router) shouldEscalate(utterance string, policy subscription.EscalationPolicy) (string, bool) {
	lower := strings.ToLower(utterance)
	if containsAny(lower, escalationPhrases) || containsAny(lower, policy.TriggerKeywords) {
		return "customer_request", true
	}
	if policy.SentimentThreshold < 0 && sentimentScore(lower) <= policy.SentimentThreshold {
		return "negative_sentiment", true
	}
	return "", false
}

// finishTurn layers disclosures onto the scripted text, records both turns,
// ends the session when the script says so, and shapes the Reply.
func (r *Router) finishTurn(ctx context.Context, sub *subscription.Subscription, session *Session, utterance string, specialist Specialist, intent Intent, sr scriptedReply) (*Reply, error) {
	text := sr.text
	if sub.ComplianceMode == subscription.ComplianceStrict {
		var notices []string
		if !session.HasDisclosed(string(DisclosureRecording)) {
			notices = append(notices, r.discl.Text(DisclosureRecording, session.Language))
			session.MarkDisclosed(string(DisclosureRecording))
		}
		if d, ok := specialistDisclosure(specialist); ok && !session.HasDisclosed(string(d)) {
			notices = append(notices, r.discl.Text(d, session.Language))
			session.MarkDisclosed(string(d))
		}
		if len(notices) > 0 {
			text = strings.Join(notices, " ") + " " + text
		}
	}

	now := r.now()
	session.ActiveSpecialist = specialist
	err := r.sessions.Append(ctx, session,
		Turn{Role: "user", Content: utterance, Timestamp: now},
		Turn{Role: "assistant", Content: text, Specialist: specialist, Intent: intent, Timestamp: now},
	)
	if err != nil {
		return nil, err
	}

	if sr.endSession {
		if _, err := r.sessions.End(ctx, sub.TenantID, session.ID, sr.endReason); err != nil {
			return nil, err
		}
	}

	return &Reply{
		SessionID:  session.ID,
		Text:       text,
		Specialist: specialist,
		Intent:     intent,
		Escalate:   sr.escalate,
		EndSession: sr.endSession,
		Action:     sr.action,
	}, nil
}

// sentimentScore is the rule-based stand-in for a sentiment model: 0 for
// neutral text, -0.5 for one negative marker, -1.0 for two or more. The
// default policy threshold of -0.7 only trips on the latter.
func sentimentScore(lower string) float64 {
	hits := 0
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	switch {
	case hits >= 2:
		return -1.0
	case hits == 1:
		return -0.5
	default:
		return 0
	}
}
