// Package openrouter is a prompt driver for the OpenRouter.ai chat
// completions API.
package openrouter

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
	"github.com/teranos/prompttask/internal/util"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/promptstack"
)

const (
	// DefaultModel is the fallback model when none is specified.
	// Should match the default in am/defaults.go
	DefaultModel = "openai/gpt-4o-mini"

	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// Config holds driver configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil = use default (0.2)
	MaxTokens   *int     // nil = use default (1000)
	MaxRetries  int
	Logger      *zap.SugaredLogger // nil = nop logger
}

// Driver sends the prompt stack as a chat completion request
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
			errors.NewConfigurationError("OpenRouter API key not configured"),
			"set OPENROUTER_API_KEY or openrouter.api_key in prompttask.toml")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == nil {
		config.Temperature = util.Ptr(0.2)
	}
	if config.MaxTokens == nil {
		config.MaxTokens = util.Ptr(1000)
	}

	return &Driver{
		config:     config,
		httpClient: httpclient.New(120 * time.Second),
		backoff:    time.Second,
		logger:     logger.OrNop(config.Logger),
	}, nil
}

// SetHTTPClient overrides the HTTP client. Only for tests against httptest
// servers: the replacement does not block private addresses.
func (d *Driver) SetHTTPClient(client *http.Client) {
	d.httpClient = httpclient.Wrap(client)
	d.backoff = time.Millisecond
}

// Model returns the configured model name
func (d *Driver) Model() string { return d.config.Model }

// ChatCompletionRequest represents a request to the chat completions endpoint
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a message in a chat completion
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents the response from chat completions
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MessagesFromStack converts a prompt stack to chat messages, one per entry,
// keeping order and roles.
func MessagesFromStack(stack *promptstack.Stack) []Message {
	msgs := stack.Messages()
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// CreateChatCompletion sends a single chat completion request. Non-200
// responses come back as *httpclient.StatusError.
func (d *Driver) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.config.APIKey)
	httpReq.Header.Set("X-Title", "prompttask")

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

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &chatResp, nil
}

// Run sends the whole stack and returns the first choice as a text artifact.
// An empty completion yields an info artifact.
func (d *Driver) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	req := ChatCompletionRequest{
		Model:       d.config.Model,
		Messages:    MessagesFromStack(stack),
		Temperature: *d.config.Temperature,
		MaxTokens:   *d.config.MaxTokens,
	}

	d.logger.Debugw("OpenRouter request",
		logger.FieldModel, req.Model,
		logger.FieldMessages, len(req.Messages),
		"temperature", req.Temperature,
		"max_tokens", req.MaxTokens,
	)

	start := time.Now()
	var resp *ChatCompletionResponse
	err := httpclient.Retry(ctx, d.config.MaxRetries, d.backoff, d.logger, func(ctx context.Context) error {
		var err error
		resp, err = d.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "OpenRouter API error")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices from OpenRouter")
	}

	d.logger.Debugw("OpenRouter response",
		logger.FieldModel, req.Model,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
	)

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return artifact.NewInfo("model returned an empty completion"), nil
	}
	return artifact.NewText(content), nil
}
