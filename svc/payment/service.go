package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/bankvoiceai/platform/pkg/apikey"
	"github.com/bankvoiceai/platform/pkg/fetledger"
	"github.com/bankvoiceai/platform/pkg/logger"
	"github.com/bankvoiceai/platform/pkg/qr"
	"github.com/bankvoiceai/platform/svc/subscription"
)

// Verifier is the slice of the ledger verifier the payment flow drives.
type Verifier interface {
	VerifyPayment(ctx context.Context, txHash, expectedTo string, expectedAmount *big.Int, memoPrefix string, maxAge time.Duration) (fetledger.Verification, error)
}

// Instruction tells a tenant exactly how to pay: which wallet, how much,
// and the memo that binds the transfer to their subscription.
type Instruction struct {
	RecipientAddress string `json:"recipient_address"`
	AmountFET        int64  `json:"amount_fet"`
	Memo             string `json:"memo"`
	Network          string `json:"network"`
	Denom            string `json:"denom"`
	QRCode           string `json:"qr_code,omitempty"` // PNG data URI of the payment link
}

// InitiateResult is either an immediate free-tier activation or a payment
// instruction for a paid plan.
type InitiateResult struct {
	Activated    bool
	Subscription *subscription.Subscription
	Credential   string
	Instruction  *Instruction
}

// VerifyResult reports the outcome of an on-chain verification. Verified
// false carries the human-readable reason; no state was touched.
type VerifyResult struct {
	Verified     bool
	Reason       string
	Subscription *subscription.Subscription
	Credential   string
	Record       *Record
	ExplorerURL  string
}

// Service drives the payment flow: instructions out, verified transfers in,
// durable records written before any activation is acknowledged.
type Service struct {
	verifier Verifier
	registry *subscription.Registry
	store    Store
	notifier *Notifier

	gateway     string
	network     string
	denom       string
	explorerURL string
	maxTxAge    time.Duration
	qrSize      int

	now func() time.Time
	log *slog.Logger
}

// NewService creates the payment service. Panics if any required
// collaborator is nil to fail fast during initialization.
func NewService(verifier Verifier, registry *subscription.Registry, store Store, cfg Config, opts ...ServiceOption) *Service {
	if verifier == nil {
		panic("payment: verifier is required")
	}
	if registry == nil {
		panic("payment: subscription registry is required")
	}
	if store == nil {
		panic("payment: store is required")
	}
	if cfg.GatewayAddress == "" {
		panic("payment: gateway address is required")
	}

	s := &Service{
		verifier:    verifier,
		registry:    registry,
		store:       store,
		notifier:    NewNotifier(),
		gateway:     cfg.GatewayAddress,
		network:     cfg.Network,
		denom:       cfg.Denom,
		explorerURL: cfg.ExplorerURL,
		maxTxAge:    cfg.MaxTxAge,
		qrSize:      256,
		now:         func() time.Time { return time.Now().UTC() },
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}
	if s.maxTxAge <= 0 {
		s.maxTxAge = time.Hour
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Initiate starts a subscription purchase. The free tier activates on the
// spot; paid plans get a payment instruction and nothing else changes until
// the transfer verifies.
func (s *Service) Initiate(ctx context.Context, tenantID, displayName string, planID subscription.PlanID) (*InitiateResult, error) {
	if !subscription.ValidTenantID(tenantID) {
		return nil, subscription.ErrInvalidTenantID
	}
	plan, ok := s.registry.PlanByID(planID)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}

	if plan.IsFree() {
		sub, err := s.registry.Create(ctx, tenantID, planID, displayName)
		if err != nil {
			return nil, err
		}
		return &InitiateResult{
			Activated:    true,
			Subscription: sub,
			Credential:   sub.LatestCredential(),
		}, nil
	}

	return &InitiateResult{
		Instruction: s.instruction(ctx, plan, BuildMemo(tenantID, planID)),
	}, nil
}

// InitiateUpgrade returns the payment instruction for moving an existing
// tenant to a higher plan. Downgrades owe nothing and should go straight to
// VerifyUpgrade with an empty transaction id.
func (s *Service) InitiateUpgrade(ctx context.Context, tenantID string, target subscription.PlanID) (*InitiateResult, error) {
	targetPlan, ok := s.registry.PlanByID(target)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}

	sub, err := s.registry.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	currentPlan, ok := s.registry.PlanByID(sub.Plan)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}

	difference := targetPlan.PriceFET - currentPlan.PriceFET
	if difference <= 0 {
		return nil, ErrNoPaymentRequired
	}

	plan := targetPlan
	plan.PriceFET = difference // instruction shows the prorated amount owed
	return &InitiateResult{
		Instruction: s.instruction(ctx, plan, BuildUpgradeMemo(tenantID, target)),
	}, nil
}

// Verify checks a submitted transaction against the expected recipient,
// amount, and memo, then persists the payment record, activates the
// subscription, and issues a credential. The durable write happens before
// any acknowledgement: a store failure fails the request.
func (s *Service) Verify(ctx context.Context, txID, tenantID, displayName string, planID subscription.PlanID) (*VerifyResult, error) {
	if txID == "" {
		return nil, ErrEmptyTxID
	}
	if !subscription.ValidTenantID(tenantID) {
		return nil, subscription.ErrInvalidTenantID
	}
	plan, ok := s.registry.PlanByID(planID)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}
	if plan.IsFree() {
		return nil, ErrNoPaymentRequired
	}

	expected := fetledger.ToSmallestUnits(plan.PriceFET)
	verification, err := s.verifier.VerifyPayment(ctx, txID, s.gateway, expected, BuildMemo(tenantID, planID), s.maxTxAge)
	if err != nil {
		return nil, errors.Join(ErrLedgerUnreachable, err)
	}
	if !verification.Valid {
		s.log.InfoContext(ctx, "payment verification failed",
			logger.TenantID(tenantID),
			logger.TxID(txID),
			slog.String("reason", verification.Reason))
		return &VerifyResult{Verified: false, Reason: verification.Reason}, nil
	}

	rec := s.record(verification.Transfer, tenantID, planID)
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	sub, credential, err := s.registry.Activate(ctx, tenantID, planID, displayName)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment verified",
		logger.TenantID(tenantID),
		logger.TxID(txID),
		logger.Plan(string(planID)),
		slog.String("amount_fet", rec.AmountFET),
		slog.String("credential", apikey.Mask(credential)))

	s.notifier.PaymentConfirmed(ctx, sub, rec)

	return &VerifyResult{
		Verified:     true,
		Subscription: sub,
		Credential:   credential,
		Record:       rec,
		ExplorerURL:  s.explorerTxURL(txID),
	}, nil
}

// VerifyUpgrade applies a plan change. Downgrades and lateral moves owe
// nothing and change the plan immediately; upgrades verify a transfer of
// exactly the price difference under the upgrade memo. The expiry date
// never moves on a plan change.
func (s *Service) VerifyUpgrade(ctx context.Context, txID, tenantID string, target subscription.PlanID) (*VerifyResult, error) {
	if !subscription.ValidTenantID(tenantID) {
		return nil, subscription.ErrInvalidTenantID
	}
	targetPlan, ok := s.registry.PlanByID(target)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}

	sub, err := s.registry.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	currentPlan, ok := s.registry.PlanByID(sub.Plan)
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}

	difference := targetPlan.PriceFET - currentPlan.PriceFET
	if difference <= 0 {
		updated, err := s.registry.ChangePlan(ctx, tenantID, target)
		if err != nil {
			return nil, err
		}

		s.log.InfoContext(ctx, "plan downgraded without payment",
			logger.TenantID(tenantID),
			slog.String("from", string(currentPlan.ID)),
			slog.String("to", string(target)))

		s.notifier.SubscriptionUpdated(ctx, updated, fmt.Sprintf("plan changed from %s to %s", currentPlan.ID, target))
		return &VerifyResult{Verified: true, Subscription: updated}, nil
	}

	if txID == "" {
		return nil, ErrEmptyTxID
	}

	expected := fetledger.ToSmallestUnits(difference)
	verification, err := s.verifier.VerifyPayment(ctx, txID, s.gateway, expected, BuildUpgradeMemo(tenantID, target), s.maxTxAge)
	if err != nil {
		return nil, errors.Join(ErrLedgerUnreachable, err)
	}
	if !verification.Valid {
		return &VerifyResult{Verified: false, Reason: verification.Reason}, nil
	}

	rec := s.record(verification.Transfer, tenantID, target)
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	updated, err := s.registry.ChangePlan(ctx, tenantID, target)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "upgrade payment verified",
		logger.TenantID(tenantID),
		logger.TxID(txID),
		slog.String("to", string(target)))

	s.notifier.PaymentConfirmed(ctx, updated, rec)

	return &VerifyResult{
		Verified:     true,
		Subscription: updated,
		Record:       rec,
		ExplorerURL:  s.explorerTxURL(txID),
	}, nil
}

// History returns the tenant's verified payments, newest first.
func (s *Service) History(ctx context.Context, tenantID string) ([]Record, error) {
	return s.store.History(ctx, tenantID)
}

// Refund marks the payment record refunded and cancels the subscription.
// The payout itself happens out of band; only the intent is recorded here.
func (s *Service) Refund(ctx context.Context, tenantID, txID, reason string) error {
	if txID == "" {
		return ErrEmptyTxID
	}

	if err := s.store.MarkRefunded(ctx, tenantID, txID); err != nil {
		return err
	}

	annotations := map[string]string{
		"refund_requested_at": s.now().Format(time.RFC3339),
		"refund_tx":           txID,
	}
	if reason != "" {
		annotations["refund_reason"] = reason
	}
	if _, err := s.registry.Annotate(ctx, tenantID, annotations); err != nil {
		return err
	}

	sub, err := s.registry.Cancel(ctx, tenantID, "refund requested")
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "refund recorded",
		logger.TenantID(tenantID),
		logger.TxID(txID),
		slog.String("reason", reason))

	s.notifier.SubscriptionUpdated(ctx, sub, "subscription cancelled for refund")
	return nil
}

// Count returns the total number of verified payments, for operator metrics.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func (s *Service) record(tr *fetledger.Transfer, tenantID string, plan subscription.PlanID) *Record {
	return &Record{
		ID:          uuid.New(),
		TxID:        tr.TxHash,
		FromAddress: tr.FromAddress,
		ToAddress:   tr.ToAddress,
		AmountFET:   fetledger.FormatFET(tr.Amount),
		Memo:        tr.Memo,
		BlockHeight: tr.BlockHeight,
		Timestamp:   tr.Timestamp,
		TenantID:    tenantID,
		Plan:        plan,
		Status:      StatusConfirmed,
		CreatedAt:   s.now(),
	}
}

func (s *Service) instruction(ctx context.Context, plan subscription.Plan, memo string) *Instruction {
	instr := &Instruction{
		RecipientAddress: s.gateway,
		AmountFET:        plan.PriceFET,
		Memo:             memo,
		Network:          s.network,
		Denom:            s.denom,
	}

	link := fmt.Sprintf("fetch:%s?amount=%d&denom=%s&memo=%s", s.gateway, plan.PriceFET, s.denom, url.QueryEscape(memo))
	dataURI, err := qr.DataURI(link, s.qrSize)
	if err != nil {
		// The instruction text is complete without the QR.
		s.log.WarnContext(ctx, "failed to render payment QR", logger.Error(err))
		return instr
	}
	instr.QRCode = dataURI
	return instr
}

func (s *Service) explorerTxURL(txID string) string {
	if s.explorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/transactions/%s", s.explorerURL, txID)
}
