package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiCompleteSendsPromptAndJoinsParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g-test" {
			t.Errorf("api key header = %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := payload["generationConfig"]; !ok {
			t.Error("generationConfig missing")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": "SELECT id "},
					{"text": "FROM users;"},
				}}},
			},
		})
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "g-test"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}

	reply, err := client.Complete(context.Background(), "list all users")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "SELECT id FROM users;" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestGeminiCompleteRejectsEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "g-test"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGeminiCompleteSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "g-test"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
}
