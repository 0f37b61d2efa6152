package payment

import "errors"

var (
	ErrEmptyTxID     = errors.New("transaction id is required")
	ErrMalformedMemo = errors.New("malformed payment memo")

	ErrRecordNotFound    = errors.New("payment record not found")
	ErrRecordExists      = errors.New("payment record already exists")
	ErrAlreadyRefunded   = errors.New("payment already refunded")
	ErrNoPaymentRequired = errors.New("free tier activates without payment")
	ErrFailedToPersist   = errors.New("failed to persist payment record")
	ErrLedgerUnreachable = errors.New("ledger verification unavailable")
)
