package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/clients/openai"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	retries := 0
	client, err := openai.New(&openai.Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: &retries,
	})
	require.NoError(t, err)
	return client
}

func TestGenerate_SendsPromptAndContext(t *testing.T) {
	var got chatRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion("  {\"response\":\"霧が晴れた\"}\n"))
	})

	out, err := client.Generate(context.Background(), &ai.GenerateInput{
		SystemPrompt: "you are the GM",
		Context:      `{"day":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"response":"霧が晴れた"}`, out)

	assert.Equal(t, openai.DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "you are the GM", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, `{"day":1}`, got.Messages[1].Content)
	assert.Nil(t, got.ResponseFormat)
}

func TestGenerate_JSONMode(t *testing.T) {
	var got chatRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(`{"batchResponse":true,"elements":[]}`))
	})

	_, err := client.Generate(context.Background(), &ai.GenerateInput{JSON: true})
	require.NoError(t, err)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGenerate_ServerError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	_, err := client.Generate(context.Background(), &ai.GenerateInput{})
	require.Error(t, err)
	assert.Equal(t, dnderr.CodeUnavailable, dnderr.GetCode(err))
}

func TestGenerate_NoChoices(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := client.Generate(context.Background(), &ai.GenerateInput{})
	assert.Equal(t, dnderr.CodeMalformedResponse, dnderr.GetCode(err))
}

func TestGenerate_DeadlinePassesThrough(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, &ai.GenerateInput{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := openai.New(&openai.Config{})
	assert.True(t, dnderr.IsInvalidArgument(err))

	_, err = openai.New(nil)
	assert.True(t, dnderr.IsInvalidArgument(err))
}
