package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	classifierTemperature = 0.0
	classifierMaxTokens   = 15
)

// classifierSystemPrompt instructs the hosted model to emit exactly one
// label from the closed intent set.
func classifierSystemPrompt() string {
	labels := make([]string, 0, len(Intents()))
	for _, intent := range Intents() {
		labels = append(labels, string(intent))
	}
	return "You are an intent classifier for a US bank IVR system. " +
		"Classify the message into exactly ONE of these intents:\n" +
		strings.Join(labels, ", ") + "\n" +
		"Respond with ONLY the intent label. Nothing else."
}

// LLMClassifier classifies intent with a single chat-completions call to a
// hosted model. Zero temperature and a tiny token budget keep the call cheap
// and the output label-shaped; anything off-label normalizes to general_faq.
type LLMClassifier struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

// ClassifierOption configures optional LLMClassifier settings.
type ClassifierOption func(*LLMClassifier)

// WithClassifierHTTPClient overrides the HTTP client, mainly for tests.
func WithClassifierHTTPClient(client *http.Client) ClassifierOption {
	return func(c *LLMClassifier) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClassifierLogger sets the classifier logger.
func WithClassifierLogger(log *slog.Logger) ClassifierOption {
	return func(c *LLMClassifier) {
		if log != nil {
			c.log = log
		}
	}
}

// NewLLMClassifier creates a classifier against a chat-completions endpoint.
// Panics on a missing base URL or model; a missing API key is allowed so
// local setups can point at an unauthenticated model server.
func NewLLMClassifier(apiKey, baseURL, model string, opts ...ClassifierOption) *LLMClassifier {
	if baseURL == "" {
		panic("conversation: classifier base URL is required")
	}
	if model == "" {
		panic("conversation: classifier model is required")
	}

	c := &LLMClassifier{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one utterance to the model and normalizes the returned
// label. Transport and API failures surface as errors so the caller can fall
// back to the keyword classifier.
func (c *LLMClassifier) Classify(ctx context.Context, utterance string) (Intent, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt()},
			{Role: "user", Content: utterance},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Join(ErrClassifierUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Join(ErrClassifierUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Join(ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", errors.Join(ErrClassifierUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Join(ErrClassifierUnavailable,
			fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.Join(ErrClassifierUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.Join(ErrClassifierUnavailable, errors.New("classifier returned no choices"))
	}

	label := parsed.Choices[0].Message.Content
	intent := NormalizeIntent(label)
	c.log.DebugContext(ctx, "intent classified",
		slog.String("label", strings.TrimSpace(label)),
		slog.String("intent", string(intent)))

	return intent, nil
}
