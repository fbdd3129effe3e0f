// Package local is a prompt driver for local inference servers (Ollama,
// LocalAI, or any OpenAI-compatible endpoint).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/ai/openrouter"
	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/internal/httpclient"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/promptstack"
)

// Config holds driver configuration
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
	ContextSize    int // 0 = model default
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	Logger         *zap.SugaredLogger
}

// Driver talks to the /v1/chat/completions endpoint of a local server
type Driver struct {
	config     Config
	httpClient *httpclient.Client
	backoff    time.Duration
	logger     *zap.SugaredLogger
}

// ChatCompletionRequest matches the OpenAI API format plus Ollama options
type ChatCompletionRequest struct {
	Model    string               `json:"model"`
	Messages []openrouter.Message `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  *CompletionOpts      `json:"options,omitempty"` // Ollama-specific options
}

// CompletionOpts are Ollama sampling options
type CompletionOpts struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"num_predict,omitempty"` // Ollama uses num_predict
	NumCtx      int     `json:"num_ctx,omitempty"`     // Context window size (Ollama default: 4096)
}

// NewDriver creates a driver for a local server. Private addresses are
// allowed since the server normally runs on localhost.
func NewDriver(config Config) (*Driver, error) {
	if config.BaseURL == "" {
		return nil, errors.NewConfigurationError("local inference base URL not configured")
	}
	if config.Model == "" {
		return nil, errors.NewConfigurationError("local inference model not configured")
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 300
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	return &Driver{
		config:     config,
		httpClient: httpclient.New(timeout, httpclient.AllowPrivateNetwork()),
		backoff:    time.Second,
		logger:     logger.OrNop(config.Logger),
	}, nil
}

// SetHTTPClient overrides the HTTP client. Only for tests.
func (d *Driver) SetHTTPClient(client *http.Client) {
	d.httpClient = httpclient.Wrap(client)
	d.backoff = time.Millisecond
}

// Model returns the configured local model name
func (d *Driver) Model() string { return d.config.Model }

func (d *Driver) complete(ctx context.Context, req ChatCompletionRequest) (*openrouter.ChatCompletionResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completion openrouter.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return &completion, nil
}

// Run sends the stack as a non-streaming chat completion
func (d *Driver) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	req := ChatCompletionRequest{
		Model:    d.config.Model,
		Messages: openrouter.MessagesFromStack(stack),
		Stream:   false,
		Options: &CompletionOpts{
			Temperature: d.config.Temperature,
			MaxTokens:   d.config.MaxTokens,
			NumCtx:      d.config.ContextSize,
		},
	}

	start := time.Now()
	var completion *openrouter.ChatCompletionResponse
	err := httpclient.Retry(ctx, d.config.MaxRetries, d.backoff, d.logger, func(ctx context.Context) error {
		var err error
		completion, err = d.complete(ctx, req)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "local inference at %s failed", d.config.BaseURL)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no completion choices returned")
	}

	d.logger.Debugw("Local inference response",
		logger.FieldModel, d.config.Model,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		"finish_reason", completion.Choices[0].FinishReason,
	)

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return artifact.NewInfo("model returned an empty completion"), nil
	}
	return artifact.NewText(content), nil
}
