package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/internal/httpclient"
	"github.com/teranos/prompttask/internal/util"
	"github.com/teranos/prompttask/promptstack"
)

func newTestDriver(t *testing.T, server *httptest.Server, retries int) *Driver {
	t.Helper()
	d, err := NewDriver(Config{APIKey: "test-key", BaseURL: server.URL, MaxRetries: retries})
	require.NoError(t, err)
	d.SetHTTPClient(server.Client())
	return d
}

func testStack() *promptstack.Stack {
	stack := promptstack.New()
	stack.AddSystemInput("You are a helpful assistant.")
	stack.AddUserInput("Q1")
	stack.AddAssistantInput("A1")
	stack.AddUserInput("hi")
	return stack
}

func TestNewDriver_Defaults(t *testing.T) {
	d, err := NewDriver(Config{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, d.Model())
	assert.Equal(t, DefaultBaseURL, d.config.BaseURL)
	require.NotNil(t, d.config.Temperature)
	assert.Equal(t, 0.2, *d.config.Temperature)
	require.NotNil(t, d.config.MaxTokens)
	assert.Equal(t, 1000, *d.config.MaxTokens)
}

func TestNewDriver_ExplicitSampling(t *testing.T) {
	d, err := NewDriver(Config{APIKey: "test-key", Temperature: util.Ptr(0.0), MaxTokens: util.Ptr(64)})
	require.NoError(t, err)

	assert.Equal(t, 0.0, *d.config.Temperature, "zero temperature is kept")
	assert.Equal(t, 64, *d.config.MaxTokens)
}

func TestNewDriver_RequiresAPIKey(t *testing.T) {
	_, err := NewDriver(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestMessagesFromStack(t *testing.T) {
	msgs := MessagesFromStack(testStack())
	assert.Equal(t, []Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Q1"},
		{Role: "assistant", Content: "A1"},
		{Role: "user", Content: "hi"},
	}, msgs)
}

func TestDriver_Run(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "  hello there \n"}}},
			Usage:   Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13},
		})
	}))
	defer server.Close()

	out, err := newTestDriver(t, server, 0).Run(context.Background(), testStack())
	require.NoError(t, err)

	assert.Equal(t, artifact.KindText, out.Kind())
	assert.Equal(t, "hello there", out.ToText())
	assert.Equal(t, DefaultModel, got.Model)
	assert.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestDriver_Run_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "   "}}},
		})
	}))
	defer server.Close()

	out, err := newTestDriver(t, server, 0).Run(context.Background(), testStack())
	require.NoError(t, err)
	assert.Equal(t, artifact.KindInfo, out.Kind())
}

func TestDriver_Run_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	_, err := newTestDriver(t, server, 0).Run(context.Background(), testStack())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}

func TestDriver_Run_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Content: "ok"}}},
		})
	}))
	defer server.Close()

	out, err := newTestDriver(t, server, 3).Run(context.Background(), testStack())
	require.NoError(t, err)
	assert.Equal(t, "ok", out.ToText())
	assert.Equal(t, int32(3), calls.Load())
}

func TestDriver_Run_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestDriver(t, server, 3).Run(context.Background(), testStack())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestDriver_Run_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDriver(t, server, 3).Run(ctx, testStack())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
