package fetledger

import "errors"

// Domain errors for ledger operations. A failed validation check is NOT an
// error: VerifyPayment reports it through Verification.Reason. Errors are
// reserved for bad inputs and for transport failures that survived the retry
// budget.
var (
	ErrEmptyTxHash        = errors.New("transaction hash is required")
	ErrInvalidAmount      = errors.New("expected amount must be a non-negative integer")
	ErrTxNotFound         = errors.New("transaction not found on ledger")
	ErrLedgerUnavailable  = errors.New("ledger endpoint unavailable")
	ErrUnexpectedResponse = errors.New("unexpected ledger response")
)
