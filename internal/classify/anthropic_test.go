package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestAnthropicClassifier_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Unexpected x-api-key %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("Unexpected anthropic-version %q", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		blocks := req.Messages[0].Content
		if len(blocks) != 2 || blocks[0].Type != "image" || blocks[0].Source == nil {
			t.Errorf("Expected image block first, got %+v", blocks)
			return
		}
		if blocks[0].Source.MediaType != "image/png" || blocks[0].Source.Type != "base64" {
			t.Errorf("Unexpected image source %+v", blocks[0].Source)
		}

		_, _ = w.Write([]byte(`{"model":"claude-test","content":[{"type":"text","text":"{\"label\":\"red fox\",\"confidence\":0.66}"}]}`))
	}))
	defer server.Close()

	c, err := NewAnthropicClassifier(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicClassifier failed: %v", err)
	}

	result, err := c.Classify(context.Background(), testPNG(t))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != "red fox" || result.Model != "claude-test" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.Confidence < 65.9 || result.Confidence > 66.1 {
		t.Errorf("Expected confidence ~66, got %v", result.Confidence)
	}
}

func TestAnthropicClassifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"image too large"}}`))
	}))
	defer server.Close()

	c, _ := NewAnthropicClassifier(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := c.Classify(context.Background(), testPNG(t))
	if err == nil || !strings.Contains(err.Error(), "image too large") {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestAnthropicClassifier_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"claude-test","content":[]}`))
	}))
	defer server.Close()

	c, _ := NewAnthropicClassifier(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := c.Classify(context.Background(), testPNG(t)); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestAnthropicClassifier_Health(t *testing.T) {
	var unauthorized atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if unauthorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	c, _ := NewAnthropicClassifier(Config{APIKey: "test-key", BaseURL: server.URL})
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy, got %v", err)
	}
	unauthorized.Store(true)
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}
