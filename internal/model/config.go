package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultUserAgent identifies wildlens to Wikipedia and model backends
const DefaultUserAgent = "wildlens/0.1 (+https://github.com/ppiankov/wildlens)"

// Config is the complete wildlens configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Wiki         WikiConfig         `yaml:"wiki" mapstructure:"wiki"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound HTTP requests
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// WikiConfig points the article fetcher at a MediaWiki installation
type WikiConfig struct {
	APIURL         string `yaml:"api_url" mapstructure:"api_url"`
	ArticleBaseURL string `yaml:"article_base_url" mapstructure:"article_base_url"`
	PlainText      bool   `yaml:"plain_text" mapstructure:"plain_text"` // false requests HTML extracts
}

// CacheConfig controls article caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ClassifierConfig selects and configures the image classifier backend
type ClassifierConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // sidecar, openai, anthropic, ollama
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model     string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig controls the HTTP backend
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	Debug          bool          `yaml:"debug" mapstructure:"debug"`
}

// RateLimitingConfig limits requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose  bool `yaml:"verbose" mapstructure:"verbose"`
	Markdown bool `yaml:"markdown" mapstructure:"markdown"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 5_000_000,
			MaxRetries:   3,
		},
		Wiki: WikiConfig{
			APIURL:         "https://en.wikipedia.org/w/api.php",
			ArticleBaseURL: "https://en.wikipedia.org/wiki/",
			PlainText:      true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".wildlens-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Classifier: ClassifierConfig{
			Provider:  "sidecar",
			Timeout:   30 * time.Second,
			MaxTokens: 200,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Wiki.APIURL) == "" {
		return fmt.Errorf("wiki.api_url is required")
	}
	if strings.TrimSpace(c.Wiki.ArticleBaseURL) == "" {
		return fmt.Errorf("wiki.article_base_url is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", c.HTTP.Timeout)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	switch strings.ToLower(c.Classifier.Provider) {
	case "sidecar", "openai", "anthropic", "claude", "ollama":
	default:
		return fmt.Errorf("unknown classifier provider: %q (supported: sidecar, openai, anthropic, ollama)", c.Classifier.Provider)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}
