package fetledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/bankvoiceai/platform/pkg/webhook"
)

const defaultVerifyAttempts = 5

// Verifier checks token transfers on the ledger against expected payments.
// All validation failures are reported through Verification.Reason; errors
// mean the ledger could not be consulted at all.
type Verifier struct {
	client   TxGetter
	denom    string
	attempts int
	backoff  webhook.BackoffStrategy
	log      *slog.Logger
}

// VerifierOption customizes a Verifier.
type VerifierOption func(*Verifier)

// WithAttempts bounds the ledger fetch retries. Values below 1 are ignored.
func WithAttempts(n int) VerifierOption {
	return func(v *Verifier) {
		if n >= 1 {
			v.attempts = n
		}
	}
}

// WithBackoff replaces the retry backoff strategy. Nil is ignored.
func WithBackoff(s webhook.BackoffStrategy) VerifierOption {
	return func(v *Verifier) {
		if s != nil {
			v.backoff = s
		}
	}
}

// WithLogger sets the logger used for verification anomalies. Nil is ignored.
func WithLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		if l != nil {
			v.log = l
		}
	}
}

// NewVerifier creates a payment verifier on top of a ledger client.
// The denom selects which coin of a transfer counts toward the paid amount.
func NewVerifier(client TxGetter, denom string, opts ...VerifierOption) *Verifier {
	if client == nil {
		panic("fetledger: client cannot be nil")
	}
	if denom == "" {
		panic("fetledger: denom cannot be empty")
	}

	v := &Verifier{
		client:   client,
		denom:    denom,
		attempts: defaultVerifyAttempts,
		backoff: webhook.ExponentialBackoff{
			InitialInterval: 2 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyPayment checks that the transaction identified by txHash is a
// successful on-chain transfer of expectedAmount (smallest units, within 0.1%
// relative tolerance) to expectedTo, carrying a memo that starts with
// memoPrefix, and no older than maxAge. A non-positive maxAge disables the
// age check.
//
// Validation short-circuits on the first failed check and reports it in
// Verification.Reason. An error is returned only when the ledger stayed
// unreachable through the retry budget or the inputs are unusable.
func (v *Verifier) VerifyPayment(ctx context.Context, txHash, expectedTo string, expectedAmount *big.Int, memoPrefix string, maxAge time.Duration) (Verification, error) {
	if expectedAmount == nil || expectedAmount.Sign() < 0 {
		return Verification{}, ErrInvalidAmount
	}

	result, err := v.fetchTx(ctx, txHash)
	if errors.Is(err, ErrTxNotFound) {
		return Verification{Reason: "transaction not found on ledger"}, nil
	}
	if err != nil {
		return Verification{}, err
	}

	tx := result.TxResponse
	if tx.Code != 0 {
		return Verification{Reason: fmt.Sprintf("transaction failed on-chain: code=%d", tx.Code)}, nil
	}

	txTime, tsErr := time.Parse(time.RFC3339, tx.Timestamp)
	if tsErr != nil {
		// Age cannot be established, the transfer is accepted on the
		// remaining checks alone.
		v.log.WarnContext(ctx, "transaction timestamp unparsable, age check skipped",
			slog.String("tx_hash", txHash),
			slog.String("timestamp", tx.Timestamp))
		txTime = time.Time{}
	} else if maxAge > 0 {
		if age := time.Since(txTime); age > maxAge {
			return Verification{Reason: fmt.Sprintf("transaction too old: %d minutes", int(age.Minutes()))}, nil
		}
	}

	memo := result.Tx.Body.Memo
	if !strings.HasPrefix(memo, memoPrefix) {
		return Verification{Reason: fmt.Sprintf("invalid memo: expected prefix %q", memoPrefix)}, nil
	}

	send := findMsgSend(result.Tx.Body.Messages)
	if send == nil {
		return Verification{Reason: "no MsgSend message in transaction"}, nil
	}

	if !strings.EqualFold(send.ToAddress, expectedTo) {
		return Verification{Reason: fmt.Sprintf("wrong recipient: got %s, expected %s", send.ToAddress, expectedTo)}, nil
	}

	paid := v.sumDenom(send.Amount)
	if paid.Sign() == 0 {
		return Verification{Reason: fmt.Sprintf("no transfer amount in denom %s", v.denom)}, nil
	}

	// 0.1% relative tolerance, compared in integer smallest units.
	tolerance := new(big.Int).Quo(expectedAmount, big.NewInt(1000))
	diff := new(big.Int).Sub(paid, expectedAmount)
	if diff.Abs(diff).Cmp(tolerance) > 0 {
		return Verification{Reason: fmt.Sprintf("wrong amount: paid %s FET, expected %s FET", FormatFET(paid), FormatFET(expectedAmount))}, nil
	}

	height, _ := strconv.ParseInt(tx.Height, 10, 64)
	transfer := &Transfer{
		TxHash:      txHash,
		FromAddress: send.FromAddress,
		ToAddress:   send.ToAddress,
		Amount:      paid,
		Denom:       v.denom,
		Memo:        memo,
		BlockHeight: height,
		Timestamp:   txTime,
	}

	v.log.InfoContext(ctx, "payment verified",
		slog.String("tx_hash", txHash),
		slog.String("amount_fet", FormatFET(paid)),
		slog.Int64("block_height", height))

	return Verification{Valid: true, Reason: "payment verified", Transfer: transfer}, nil
}

// fetchTx retries transient ledger failures with exponential backoff.
// Not-found is definitive and returned immediately.
func (v *Verifier) fetchTx(ctx context.Context, txHash string) (*TxResult, error) {
	var lastErr error
	for attempt := 1; attempt <= v.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(v.backoff.NextInterval(attempt - 1)):
			}
		}

		result, err := v.client.GetTx(ctx, txHash)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrTxNotFound) || errors.Is(err, ErrEmptyTxHash) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ledger fetch failed after %d attempts: %w", v.attempts, lastErr)
}

// sumDenom totals the coins matching the verifier's denom. Unparsable amounts
// are skipped rather than failing the whole transfer.
func (v *Verifier) sumDenom(coins []Coin) *big.Int {
	total := new(big.Int)
	for _, coin := range coins {
		if coin.Denom != v.denom {
			continue
		}
		amount, ok := new(big.Int).SetString(coin.Amount, 10)
		if !ok {
			continue
		}
		total.Add(total, amount)
	}
	return total
}

func findMsgSend(messages []TxMessage) *TxMessage {
	for i := range messages {
		if messages[i].Type == MsgSendType {
			return &messages[i]
		}
	}
	return nil
}
