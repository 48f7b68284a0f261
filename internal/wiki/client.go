// Package wiki looks up encyclopedia articles through the MediaWiki action API.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/cache"
	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/model"
	"github.com/ppiankov/wildlens/internal/util"
	"github.com/ppiankov/wildlens/internal/worker"
)

// ErrNoResults means the search returned nothing or the article had no text
var ErrNoResults = errors.New("no matching article")

// ErrEmptyQuery is returned for blank labels
var ErrEmptyQuery = errors.New("empty query")

// Article is a resolved encyclopedia article
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Options configures a Client
type Options struct {
	APIURL         string
	ArticleBaseURL string
	PlainText      bool
	UserAgent      string
	MaxBodyBytes   int64
	MaxRetries     int
	HTTPClient     *http.Client
	Limiter        *worker.Limiter
	Cache          cache.Cache
	CacheTTL       time.Duration
	Logger         logging.Logger
}

// Client fetches article text for a label: one search request, one extract request
type Client struct {
	apiURL      string
	articleBase string
	plainText   bool
	userAgent   string
	maxBytes    int64
	maxRetries  int
	httpClient  *http.Client
	limiter     *worker.Limiter
	cache       cache.Cache
	cacheTTL    time.Duration
	log         logging.Logger
}

// NewClient creates a Client, filling unset options with defaults
func NewClient(opts Options) *Client {
	defaults := model.DefaultConfig()

	c := &Client{
		apiURL:      opts.APIURL,
		articleBase: opts.ArticleBaseURL,
		plainText:   opts.PlainText,
		userAgent:   opts.UserAgent,
		maxBytes:    opts.MaxBodyBytes,
		maxRetries:  opts.MaxRetries,
		httpClient:  opts.HTTPClient,
		limiter:     opts.Limiter,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		log:         opts.Logger,
	}
	if c.apiURL == "" {
		c.apiURL = defaults.Wiki.APIURL
	}
	if c.articleBase == "" {
		c.articleBase = defaults.Wiki.ArticleBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = model.DefaultUserAgent
	}
	if c.maxBytes <= 0 {
		c.maxBytes = defaults.HTTP.MaxBodyBytes
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 1
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaults.HTTP.Timeout}
	}
	if c.log == nil {
		c.log = logging.NewNop()
	}
	return c
}

// NewClientFromConfig wires a Client from the application config
func NewClientFromConfig(cfg *model.Config, limiter *worker.Limiter, store cache.Cache, log logging.Logger) *Client {
	return NewClient(Options{
		APIURL:         cfg.Wiki.APIURL,
		ArticleBaseURL: cfg.Wiki.ArticleBaseURL,
		PlainText:      cfg.Wiki.PlainText,
		UserAgent:      cfg.HTTP.UserAgent,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		MaxRetries:     cfg.HTTP.MaxRetries,
		HTTPClient:     util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		Limiter:        limiter,
		Cache:          store,
		CacheTTL:       cfg.Cache.DiskTTL,
		Logger:         log,
	})
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int     `json:"pageid"`
			Title   string  `json:"title"`
			Extract string  `json:"extract"`
			Missing *string `json:"missing,omitempty"`
		} `json:"pages"`
	} `json:"query"`
}

// Search returns the title of the top full-text search hit for query
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)

	var resp searchResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		return "", fmt.Errorf("search %q: %w", query, err)
	}
	if len(resp.Query.Search) == 0 {
		return "", ErrNoResults
	}
	return resp.Query.Search[0].Title, nil
}

// Extract returns the article text for title; a missing page yields ""
func (c *Client) Extract(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("titles", title)
	if c.plainText {
		params.Set("explaintext", "1")
	}

	var resp extractResponse
	if err := c.getJSON(ctx, params, &resp); err != nil {
		return "", fmt.Errorf("extract %q: %w", title, err)
	}

	for _, page := range resp.Query.Pages {
		if page.Missing != nil {
			return "", nil
		}
		if c.plainText {
			return page.Extract, nil
		}
		text, err := htmlToText(page.Extract)
		if err != nil {
			return "", fmt.Errorf("parse extract %q: %w", title, err)
		}
		return text, nil
	}
	return "", nil
}

// ArticleURL builds the public article link for title
func (c *Client) ArticleURL(title string) string {
	return c.articleBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// FetchArticle resolves a label to its best-matching article.
// ErrNoResults covers both an empty search and an article without text.
func (c *Client) FetchArticle(ctx context.Context, label string) (*Article, error) {
	query := strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	key := cache.CacheKey(query)
	if c.cache != nil {
		var cached Article
		if cache.GetJSON(c.cache, key, &cached) {
			c.log.Debug("article cache hit", logging.String("label", query), logging.String("title", cached.Title))
			return &cached, nil
		}
	}

	title, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	text, err := c.Extract(ctx, title)
	if err != nil {
		return nil, err
	}

	article := &Article{Title: title, Text: text, URL: c.ArticleURL(title)}
	if strings.TrimSpace(text) == "" {
		return article, ErrNoResults
	}

	if c.cache != nil {
		if err := cache.SetJSON(c.cache, key, article, c.cacheTTL); err != nil {
			c.log.Warn("failed to cache article", logging.String("title", title), logging.Error(err))
		}
	}

	c.log.Debug("article fetched",
		logging.String("label", query),
		logging.String("title", title),
		logging.Int("chars", len(text)),
	)
	return article, nil
}
