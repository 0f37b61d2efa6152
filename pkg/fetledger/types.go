package fetledger

import (
	"math/big"
	"time"
)

// MsgSendType is the protobuf type URL of a Cosmos bank transfer message.
const MsgSendType = "/cosmos.bank.v1beta1.MsgSend"

// Coin is a single denomination/amount pair as the LCD encodes it.
// Amounts are decimal strings of the smallest unit.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// TxMessage is one message of a transaction body. The LCD encodes messages
// polymorphically keyed by "@type"; only the MsgSend fields are modeled here,
// other message types keep their type URL and nothing else.
type TxMessage struct {
	Type        string `json:"@type"`
	FromAddress string `json:"from_address,omitempty"`
	ToAddress   string `json:"to_address,omitempty"`
	Amount      []Coin `json:"amount,omitempty"`
}

// TxBody carries the messages and the user-supplied memo of a transaction.
type TxBody struct {
	Messages []TxMessage `json:"messages"`
	Memo     string      `json:"memo"`
}

// Tx is the decoded transaction payload.
type Tx struct {
	Body TxBody `json:"body"`
}

// TxResponse is the execution result of a transaction. Code 0 means the
// transaction succeeded on-chain. Height is a decimal string on the wire.
type TxResponse struct {
	TxHash    string `json:"txhash"`
	Code      int    `json:"code"`
	Height    string `json:"height"`
	Timestamp string `json:"timestamp"`
	RawLog    string `json:"raw_log,omitempty"`
}

// TxResult is the LCD response for a single transaction lookup.
type TxResult struct {
	Tx         Tx          `json:"tx"`
	TxResponse *TxResponse `json:"tx_response"`
}

// Transfer is a confirmed on-chain token transfer extracted from a verified
// transaction. Amount is in smallest units. Timestamp is zero when the chain
// reported an unparsable value.
type Transfer struct {
	TxHash      string
	FromAddress string
	ToAddress   string
	Amount      *big.Int
	Denom       string
	Memo        string
	BlockHeight int64
	Timestamp   time.Time
}

// Verification is the outcome of checking a transaction against an expected
// payment. When Valid is false, Reason explains which check failed in terms
// safe to relay to the paying tenant. Transfer is set only on success.
type Verification struct {
	Valid    bool
	Reason   string
	Transfer *Transfer
}
