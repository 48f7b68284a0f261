package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaClassifier_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Model != "llava:7b" || req.Format != "json" || req.Stream {
			t.Errorf("Unexpected request %+v", req)
		}
		if len(req.Images) != 1 || !strings.HasPrefix(req.Images[0], "iVBOR") {
			t.Errorf("Expected one base64 PNG image")
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{Model: "llava:7b", Response: `{"label":"bald eagle","confidence":0.95}`, Done: true})
	}))
	defer server.Close()

	c, err := NewOllamaClassifier(Config{Model: "llava:7b", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOllamaClassifier failed: %v", err)
	}

	result, err := c.Classify(context.Background(), testPNG(t))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != "bald eagle" || result.Confidence != 95 {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestOllamaClassifier_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava:7b' not found"}`))
	}))
	defer server.Close()

	c, _ := NewOllamaClassifier(Config{Model: "llava:7b", BaseURL: server.URL})
	_, err := c.Classify(context.Background(), testPNG(t))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected model not found error, got %v", err)
	}
}

func TestOllamaClassifier_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Expected /api/tags, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	c, _ := NewOllamaClassifier(Config{Model: "llava:7b", BaseURL: server.URL})
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy, got %v", err)
	}

	server.Close()
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable after shutdown, got %v", err)
	}
}
