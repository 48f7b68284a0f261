// Probe program that runs the article fetcher and fact extractor against live Wikipedia.
// It shows which sentences each category picks for a few well-known animals.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/facts"
	"github.com/ppiankov/wildlens/internal/model"
	"github.com/ppiankov/wildlens/internal/wiki"
	"github.com/ppiankov/wildlens/internal/worker"
)

func main() {
	fmt.Println("=== Wikipedia Fact Extraction Probe ===")
	fmt.Println()

	labels := os.Args[1:]
	if len(labels) == 0 {
		labels = []string{
			"king_cobra",
			"golden retriever",
			"tiger",
			"zzyzx qwvx",
		}
	}

	cfg := model.DefaultConfig()
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	client := wiki.NewClientFromConfig(cfg, limiter, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, label := range labels {
		fmt.Printf("Label: %s\n", label)
		fmt.Println(strings.Repeat("-", 60))

		start := time.Now()
		article, err := client.FetchArticle(ctx, label)
		switch {
		case errors.Is(err, wiki.ErrNoResults):
			fmt.Printf("  %s\n", facts.NoFactsFound)
			if article != nil {
				fmt.Printf("  (article exists but has no text: %s)\n", article.URL)
			}
		case err != nil:
			fmt.Printf("  %s\n  error: %v\n", facts.FetchFailed, err)
		default:
			fmt.Printf("  Article: %s (%d chars, %v)\n", article.Title, len(article.Text), time.Since(start).Round(time.Millisecond))
			fmt.Printf("  Sentences: %d\n", len(facts.SplitSentences(article.Text)))
			found := facts.ExtractFacts(article.Text, label)
			if len(found) == 0 {
				fmt.Printf("  %s\n", facts.NoFactsFound)
			}
			for _, f := range found {
				fmt.Printf("  [%s] %s\n", f.Category, f)
			}
			fmt.Printf("  🔗 %s\n", article.URL)
		}

		fmt.Println()
	}

	fmt.Println("=== Probe Complete ===")
}
