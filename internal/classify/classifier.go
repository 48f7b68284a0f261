// Package classify turns an uploaded image into a species label with a confidence score.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/model"
)

// ErrUnavailable indicates the classifier backend could not be reached
var ErrUnavailable = errors.New("classifier unavailable")

// ErrNoLabel indicates the backend answered without a usable label
var ErrNoLabel = errors.New("classifier returned no label")

// Classifier is implemented by every image classification backend
type Classifier interface {
	// Name returns the backend name
	Name() string

	// Classify returns the top-1 label for img
	Classify(ctx context.Context, img Image) (*Result, error)

	// Health returns nil when the backend is ready to classify
	Health(ctx context.Context) error
}

// Result is a normalized top-1 prediction
type Result struct {
	Label      string  // lower-case, underscores replaced by spaces
	Confidence float64 // percentage, 0..100
	Model      string
}

// Config holds classifier backend configuration
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	UserAgent  string
}

// ConfigFromModel converts the application config into a classifier Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.Classifier.Provider,
		Model:      cfg.Classifier.Model,
		APIKey:     cfg.Classifier.APIKey,
		BaseURL:    cfg.Classifier.BaseURL,
		Timeout:    cfg.Classifier.Timeout,
		MaxTokens:  cfg.Classifier.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		UserAgent:  cfg.HTTP.UserAgent,
	}
}

// New creates the classifier named by cfg.Provider
func New(cfg Config) (Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "sidecar", "":
		return NewSidecarClassifier(cfg)
	case "openai":
		return NewOpenAIClassifier(cfg)
	case "anthropic", "claude":
		return NewAnthropicClassifier(cfg)
	case "ollama":
		return NewOllamaClassifier(cfg)
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: sidecar, openai, anthropic, ollama)", cfg.Provider)
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 200
}

// toPercent scales a 0..1 probability to a percentage and clamps to 0..100
func toPercent(score float64) float64 {
	if score <= 1 {
		score *= 100
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
