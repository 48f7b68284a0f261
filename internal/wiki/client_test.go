package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/wildlens/internal/cache"
)

type fakeWiki struct {
	searches  atomic.Int32
	extracts  atomic.Int32
	titles    []string
	extract   string
	missing   bool
	lastQuery atomic.Value
}

func (f *fakeWiki) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("action") != "query" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "wildlens-test" {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case q.Get("list") == "search":
			f.searches.Add(1)
			f.lastQuery.Store(q.Get("srsearch"))
			hits := make([]map[string]any, 0, len(f.titles))
			for i, title := range f.titles {
				hits = append(hits, map[string]any{"title": title, "pageid": i + 1})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"search": hits}})
		case q.Get("prop") == "extracts":
			f.extracts.Add(1)
			page := map[string]any{"pageid": 42, "title": q.Get("titles"), "extract": f.extract}
			key := "42"
			if f.missing {
				page = map[string]any{"title": q.Get("titles"), "missing": ""}
				key = "-1"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": map[string]any{key: page}}})
		default:
			t.Errorf("unexpected request: %s", r.URL.RawQuery)
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func newTestClient(serverURL string, opts Options) *Client {
	opts.APIURL = serverURL
	opts.ArticleBaseURL = "https://en.wikipedia.org/wiki/"
	opts.UserAgent = "wildlens-test"
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	return NewClient(opts)
}

func TestFetchArticle_Success(t *testing.T) {
	fake := &fakeWiki{titles: []string{"King cobra", "Cobra"}, extract: "The king cobra is a venomous snake. It lives in forests."}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: true})
	article, err := client.FetchArticle(context.Background(), "king_cobra")
	if err != nil {
		t.Fatalf("FetchArticle failed: %v", err)
	}

	if article.Title != "King cobra" {
		t.Errorf("Expected top hit title, got %q", article.Title)
	}
	if article.URL != "https://en.wikipedia.org/wiki/King_cobra" {
		t.Errorf("Unexpected URL %q", article.URL)
	}
	if article.Text != fake.extract {
		t.Errorf("Unexpected text %q", article.Text)
	}
	if got := fake.lastQuery.Load(); got != "king cobra" {
		t.Errorf("Expected underscores replaced in search query, got %v", got)
	}
	if fake.searches.Load() != 1 || fake.extracts.Load() != 1 {
		t.Errorf("Expected exactly one search and one extract, got %d/%d", fake.searches.Load(), fake.extracts.Load())
	}
}

func TestFetchArticle_NoSearchResults(t *testing.T) {
	fake := &fakeWiki{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: true})
	article, err := client.FetchArticle(context.Background(), "zzzzqqq")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("Expected ErrNoResults, got %v", err)
	}
	if article != nil {
		t.Errorf("Expected nil article, got %+v", article)
	}
	if fake.extracts.Load() != 0 {
		t.Error("Extract should not be requested after an empty search")
	}
}

func TestFetchArticle_EmptyExtractKeepsLink(t *testing.T) {
	fake := &fakeWiki{titles: []string{"Okapi"}, extract: "   "}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: true})
	article, err := client.FetchArticle(context.Background(), "okapi")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("Expected ErrNoResults, got %v", err)
	}
	if article == nil || article.URL != "https://en.wikipedia.org/wiki/Okapi" {
		t.Errorf("Expected article with link, got %+v", article)
	}
}

func TestFetchArticle_MissingPage(t *testing.T) {
	fake := &fakeWiki{titles: []string{"Ghost"}, missing: true}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: true})
	if _, err := client.FetchArticle(context.Background(), "ghost"); !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected ErrNoResults for missing page, got %v", err)
	}
}

func TestFetchArticle_EmptyLabel(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.FetchArticle(context.Background(), "  _ "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestFetchArticle_CacheHitSkipsNetwork(t *testing.T) {
	fake := &fakeWiki{titles: []string{"Tiger"}, extract: "The tiger is the largest living cat species."}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	client := newTestClient(server.URL, Options{PlainText: true, Cache: store})

	if _, err := client.FetchArticle(context.Background(), "tiger"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	article, err := client.FetchArticle(context.Background(), " Tiger ")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if article.Title != "Tiger" {
		t.Errorf("Unexpected cached title %q", article.Title)
	}
	if n := fake.searches.Load() + fake.extracts.Load(); n != 2 {
		t.Errorf("Expected 2 requests in total, got %d", n)
	}
}

func TestFetchArticle_EmptyArticleNotCached(t *testing.T) {
	fake := &fakeWiki{titles: []string{"Okapi"}, extract: ""}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	client := newTestClient(server.URL, Options{PlainText: true, Cache: store})

	_, _ = client.FetchArticle(context.Background(), "okapi")
	if store.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", store.Len())
	}
}

func TestExtract_HTMLMode(t *testing.T) {
	fake := &fakeWiki{
		titles:  []string{"Red fox"},
		extract: `<p>The <b>red fox</b> is the largest of the true foxes.<sup>[1]</sup> It is found across the Northern Hemisphere.</p><table><tr><td>skip me</td></tr></table><p>Its habitat includes forests.</p>`,
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: false})
	text, err := client.Extract(context.Background(), "Red fox")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := "The red fox is the largest of the true foxes. It is found across the Northern Hemisphere.\nIts habitat includes forests."
	if text != want {
		t.Errorf("Extract() = %q, want %q", text, want)
	}
}

func TestExtract_RequestsPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("explaintext") == "" {
			t.Error("Expected explaintext parameter")
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"pageid":1,"title":"Owl","extract":"Owls are birds."}}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Options{PlainText: true})
	text, err := client.Extract(context.Background(), "Owl")
	if err != nil || text != "Owls are birds." {
		t.Errorf("Extract() = %q, %v", text, err)
	}
}

func TestSearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for replicas"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	_, err := client.Search(context.Background(), "tiger")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "maxlag" {
		t.Errorf("Expected APIError maxlag, got %v", err)
	}
}

func TestSearch_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	if _, err := client.Search(context.Background(), "tiger"); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestArticleURL(t *testing.T) {
	client := NewClient(Options{ArticleBaseURL: "https://en.wikipedia.org/wiki/"})
	tests := map[string]string{
		"King cobra":        "https://en.wikipedia.org/wiki/King_cobra",
		"Tiger":             "https://en.wikipedia.org/wiki/Tiger",
		"AC/DC":             "https://en.wikipedia.org/wiki/AC%2FDC",
		"Great white shark": "https://en.wikipedia.org/wiki/Great_white_shark",
	}
	for title, want := range tests {
		if got := client.ArticleURL(title); got != want {
			t.Errorf("ArticleURL(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})
	if client.apiURL != "https://en.wikipedia.org/w/api.php" {
		t.Errorf("Unexpected default API URL %q", client.apiURL)
	}
	if client.maxRetries != 1 || client.maxBytes <= 0 || client.httpClient == nil || client.log == nil {
		t.Errorf("Expected defaults to be filled, got %+v", client)
	}
}
