package rewriter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsAgent/internal/config"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", handler)
	return httptest.NewServer(mux)
}

func testConfig(baseURL string) config.RewriterConfig {
	return config.RewriterConfig{
		BaseURL:      baseURL + "/",
		Model:        "gpt-4o-mini",
		APIKey:       "test-key",
		SystemPrompt: "You rewrite drafts.",
	}
}

func TestRewriteReturnsModelOutput(t *testing.T) {
	t.Parallel()

	var gotBody string
	server := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "  X rewritten  "}},
			},
		})
	})
	defer server.Close()

	r := NewOpenAIRewriter(testConfig(server.URL))

	out, err := r.Rewrite(context.Background(), "X", "Y", "https://example.org/x")
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}

	if out != "X rewritten" {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(gotBody, "gpt-4o-mini") {
		t.Fatalf("model missing from request: %s", gotBody)
	}
	if !strings.Contains(gotBody, "https://example.org/x") {
		t.Fatalf("source url missing from prompt: %s", gotBody)
	}
}

func TestRewriteEmptyChoices(t *testing.T) {
	t.Parallel()

	server := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","choices":[]}`))
	})
	defer server.Close()

	r := NewOpenAIRewriter(testConfig(server.URL))

	if _, err := r.Rewrite(context.Background(), "X", "Y", ""); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestRewriteAPIError(t *testing.T) {
	t.Parallel()

	server := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	})
	defer server.Close()

	r := NewOpenAIRewriter(testConfig(server.URL))

	if _, err := r.Rewrite(context.Background(), "X", "Y", ""); err == nil {
		t.Fatal("expected error on api failure")
	}
}
