package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOpenAI serves a canned chat-completions reply and captures the request.
func fakeOpenAI(t *testing.T, content string, promptTokens, completionTokens int, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestExtractor(t *testing.T, baseURL string) *Extractor {
	t.Helper()
	e, err := New(Config{APIKey: "test-key", BaseURL: baseURL + "/v1"}, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	t.Run("missing API key is a configuration error", func(t *testing.T) {
		_, err := New(Config{}, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("defaults the model", func(t *testing.T) {
		e, err := New(Config{APIKey: "k"}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", e.cfg.Model)
	})
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("parses a full model reply", func(t *testing.T) {
		content := `{
			"invoiceID": "INV-001",
			"LineItems": [{"description": "Monitor", "quantity": 1, "unit_price": 100, "total_price": 100, "category": "Electronics"}],
			"SpecialNotes": ["Handle with care"]
		}`
		var req map[string]any
		server := fakeOpenAI(t, content, 321, 87, &req)
		defer server.Close()

		result, err := newTestExtractor(t, server.URL).Extract(
			context.Background(), "Invoice INV-001 Monitor 100", []string{"Electronics", "Food"})

		require.NoError(t, err)
		assert.Equal(t, "INV-001", result.InvoiceID)
		require.Len(t, result.LineItems, 1)
		assert.Equal(t, "Electronics", result.LineItems[0].Category)
		assert.Equal(t, []string{"Handle with care"}, result.SpecialNotes)
		assert.Equal(t, 321, result.PromptTokens)
		assert.Equal(t, 87, result.CompletionTokens)
	})

	t.Run("prompt carries categories and full text", func(t *testing.T) {
		var req map[string]any
		server := fakeOpenAI(t, `{}`, 1, 1, &req)
		defer server.Close()

		_, err := newTestExtractor(t, server.URL).Extract(
			context.Background(), "the raw invoice text", []string{"Electronics", "Food"})

		require.NoError(t, err)
		messages := req["messages"].([]any)
		require.Len(t, messages, 2)
		user := messages[1].(map[string]any)["content"].(string)
		assert.Contains(t, user, "Electronics, Food")
		assert.Contains(t, user, "the raw invoice text")
		assert.Contains(t, user, `"invoiceID"`)

		// Deterministic sampling and JSON-constrained output.
		assert.InDelta(t, 0, req["temperature"].(float64), 1e-30)
		format := req["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])
	})

	t.Run("empty text is an input error", func(t *testing.T) {
		server := fakeOpenAI(t, `{}`, 0, 0, nil)
		defer server.Close()

		_, err := newTestExtractor(t, server.URL).Extract(context.Background(), "   \n", nil)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("transport failure is wrapped once", func(t *testing.T) {
		server := fakeOpenAI(t, `{}`, 0, 0, nil)
		server.Close() // refuse connections

		_, err := newTestExtractor(t, server.URL).Extract(context.Background(), "text", nil)
		assert.ErrorContains(t, err, "error parsing text with OpenAI")
	})

	t.Run("non-JSON reply is wrapped once", func(t *testing.T) {
		server := fakeOpenAI(t, "sorry, I cannot do that", 5, 5, nil)
		defer server.Close()

		_, err := newTestExtractor(t, server.URL).Extract(context.Background(), "text", nil)
		assert.ErrorContains(t, err, "error parsing text with OpenAI")
	})
}
