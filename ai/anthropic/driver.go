// Package anthropic is a prompt driver for the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/internal/httpclient"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/promptstack"
)

const (
	// DefaultModel is the default Claude model
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultBaseURL is the Anthropic API endpoint
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// APIVersion is the required Anthropic API version header
	APIVersion = "2023-06-01"
)

// Config holds driver configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Logger      *zap.SugaredLogger
}

// Driver sends prompt stacks to the Messages API
type Driver struct {
	config     Config
	httpClient *httpclient.Client
	backoff    time.Duration
	logger     *zap.SugaredLogger
}

// NewDriver creates a driver, applying defaults for unset fields
func NewDriver(config Config) (*Driver, error) {
	if config.APIKey == "" {
		return nil, errors.WithHint(
			errors.NewConfigurationError("Anthropic API key not configured"),
			"set ANTHROPIC_API_KEY or anthropic.api_key in prompttask.toml")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096 // max_tokens is mandatory for this API
	}

	return &Driver{
		config:     config,
		httpClient: httpclient.New(120 * time.Second),
		backoff:    time.Second,
		logger:     logger.OrNop(config.Logger),
	}, nil
}

// SetHTTPClient overrides the HTTP client. Only for tests.
func (d *Driver) SetHTTPClient(client *http.Client) {
	d.httpClient = httpclient.Wrap(client)
	d.backoff = time.Millisecond
}

// Model returns the configured model name
func (d *Driver) Model() string { return d.config.Model }

// MessagesRequest represents a request to the Anthropic Messages API
type MessagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message represents a message in the conversation
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MessagesResponse represents the response from the Messages API
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// RequestFromStack splits a prompt stack into the top-level system prompt and
// the user/assistant turns. Consecutive turns with the same role are joined,
// since the API requires alternation.
func RequestFromStack(stack *promptstack.Stack) (string, []Message) {
	var msgs []Message
	for _, m := range stack.Conversation() {
		role := string(m.Role)
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + m.Content
			continue
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}
	return stack.SystemText(), msgs
}

func (d *Driver) createMessages(ctx context.Context, req MessagesRequest) (*MessagesResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", d.config.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(respBody, &messagesResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &messagesResp, nil
}

// Run sends the stack and joins the text blocks of the reply
func (d *Driver) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	system, msgs := RequestFromStack(stack)
	if len(msgs) == 0 {
		return nil, errors.NewInvalidRequestError("prompt stack has no user input")
	}

	req := MessagesRequest{
		Model:       d.config.Model,
		MaxTokens:   d.config.MaxTokens,
		Temperature: d.config.Temperature,
		System:      system,
		Messages:    msgs,
	}

	d.logger.Debugw("Anthropic request",
		logger.FieldModel, req.Model,
		logger.FieldMessages, len(req.Messages),
		"system_length", len(system),
	)

	start := time.Now()
	var resp *MessagesResponse
	err := httpclient.Retry(ctx, d.config.MaxRetries, d.backoff, d.logger, func(ctx context.Context) error {
		var err error
		resp, err = d.createMessages(ctx, req)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "Anthropic API error")
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	d.logger.Debugw("Anthropic response",
		logger.FieldModel, req.Model,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)

	text := strings.TrimSpace(content.String())
	if text == "" {
		return artifact.NewInfo("model returned an empty completion"), nil
	}
	return artifact.NewText(text), nil
}
