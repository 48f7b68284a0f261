package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/util"
)

// SidecarClassifier calls an HTTP model server exposing POST /classify and GET /health
type SidecarClassifier struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type sidecarRequest struct {
	Image  string `json:"image"`
	Format string `json:"format"`
}

type sidecarResponse struct {
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

type sidecarHealth struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
}

// NewSidecarClassifier creates a classifier for a model server at cfg.BaseURL
func NewSidecarClassifier(cfg Config) (*SidecarClassifier, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8501"
	}

	return &SidecarClassifier{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: util.NewHTTPClient(cfg.timeout(30*time.Second), cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}, nil
}

// Name returns the backend name
func (c *SidecarClassifier) Name() string {
	return "sidecar"
}

// Classify sends the image to the model server.
// Returns ErrUnavailable when the server cannot be reached.
func (c *SidecarClassifier) Classify(ctx context.Context, img Image) (*Result, error) {
	body, err := json.Marshal(sidecarRequest{Image: img.Base64(), Format: img.Format})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned %d", resp.StatusCode)
	}

	var out sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	label := NormalizeLabel(out.Label)
	if label == "" {
		return nil, ErrNoLabel
	}

	return &Result{Label: label, Confidence: toPercent(out.Confidence), Model: out.ModelVersion}, nil
}

// Health calls GET /health on the model server
func (c *SidecarClassifier) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unhealthy status %d", ErrUnavailable, resp.StatusCode)
	}

	var health sidecarHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err == nil && health.Status != "" && !strings.EqualFold(health.Status, "ok") {
		return fmt.Errorf("%w: status %q", ErrUnavailable, health.Status)
	}
	return nil
}
