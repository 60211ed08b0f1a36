package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractinvoice/internal/config"
	"contractinvoice/internal/domain"
	"contractinvoice/internal/llm"
	"contractinvoice/internal/llm/openai"
	"contractinvoice/internal/port"
)

func newTestClient(serverURL string) *openai.Client {
	cfg := &config.LLMConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o", TimeoutSecs: 5}
	return openai.NewClientWithEndpoint(cfg, serverURL)
}

func TestOpenAIClient_Chat_JSONMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		format := reqBody["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"iban":"RO49AAAA1B31007593840000"}`}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Chat(context.Background(), port.ChatRequest{Prompt: "p", Mode: domain.OutputJSON})
	require.NoError(t, err)
	assert.Equal(t, `{"iban":"RO49AAAA1B31007593840000"}`, out)
}

func TestOpenAIClient_Chat_FreeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		_, hasFormat := reqBody["response_format"]
		assert.False(t, hasFormat)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "summary"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Chat(context.Background(), port.ChatRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "summary", out)
}

func TestOpenAIClient_Chat_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"a":`}, "finish_reason": "length"},
			},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), port.ChatRequest{Prompt: "p"})
	assert.ErrorContains(t, err, "truncated")
}

func TestOpenAIClient_Chat_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), port.ChatRequest{Prompt: "p"})
	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.RateLimited())
	assert.Equal(t, 30*time.Second, apiErr.RetryAfter)
}

func TestOpenAIClient_Chat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), port.ChatRequest{Prompt: "p"})
	assert.ErrorContains(t, err, "empty response")
}
