package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateReturnsResponseVerbatim(t *testing.T) {
	var capturedPrompt, capturedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		capturedModel, _ = payload["model"].(string)
		_, _ = w.Write([]byte(`{"response":"  summary with spaces  "}`))
	}))
	defer server.Close()

	out, err := New(server.URL, "gen").Generate(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "  summary with spaces  " {
		t.Fatalf("expected verbatim output, got %q", out)
	}
	if capturedPrompt != "prompt text" || capturedModel != "gen" {
		t.Fatalf("unexpected request prompt=%q model=%q", capturedPrompt, capturedModel)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "gen").Generate(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
