package fetledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes caps how much of an LCD response is read into memory.
// Transaction lookups are small; anything larger is not a transaction.
const maxResponseBytes = 1 << 20

// TxGetter fetches a single transaction by hash. Client implements it; tests
// and higher layers depend on the interface.
type TxGetter interface {
	GetTx(ctx context.Context, txHash string) (*TxResult, error)
}

// Client is a typed JSON client for the Cosmos LCD REST API of a Fetch.ai
// network node. Zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. for tests or custom
// transports. Nil is ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates an LCD client for the given base endpoint,
// e.g. "https://rest-dorado.fetch.ai".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrLedgerUnavailable)
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromConfig creates an LCD client from environment-derived config.
func NewClientFromConfig(cfg Config, opts ...ClientOption) (*Client, error) {
	c, err := NewClient(cfg.BaseURL, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.RequestTimeout > 0 {
		c.httpClient.Timeout = cfg.RequestTimeout
	}
	return c, nil
}

// GetTx looks up a transaction by hash. A missing transaction is reported as
// ErrTxNotFound; transport failures and non-2xx statuses are wrapped in
// ErrLedgerUnavailable so callers can classify them as transient.
func (c *Client) GetTx(ctx context.Context, txHash string) (*TxResult, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, ErrEmptyTxHash
	}

	endpoint := c.baseURL + "/cosmos/tx/v1beta1/txs/" + url.PathEscape(txHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTxNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLedgerUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	var result TxResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if result.TxResponse == nil {
		return nil, ErrTxNotFound
	}
	return &result, nil
}
