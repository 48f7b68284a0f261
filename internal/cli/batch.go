package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/pipeline"
	"github.com/ppiankov/wildlens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify many images listed in a file in parallel",
	Long: `Batch processes many images concurrently:
- Read image paths from the input file (one per line, # for comments)
- Classify images in parallel with a configurable worker count
- Write a JSON and a Markdown report per image

Example:
  wildlens batch images.txt
  wildlens batch images.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./wildlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	p, cfg, log, err := buildPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	workers := concurrency
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency.Workers > 0 {
		workers = cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Classifier:   %s\n", p.Classifier().Name())
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(p, workers, cfg.Server.MaxUploadBytes)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := writeBatchReports(results, outputDir, pipeline.NewRenderer())

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d images\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", summary.success)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", summary.failure)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if summary.success == 0 && summary.failure > 0 {
		return fmt.Errorf("all %d images failed", summary.failure)
	}
	return nil
}

type batchSummary struct {
	success int
	failure int
}

func writeBatchReports(results []*worker.ImageResult, dir string, renderer *pipeline.Renderer) batchSummary {
	var summary batchSummary
	seen := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			summary.failure++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		slug := reportSlug(result.Path, seen)
		jsonPath := filepath.Join(dir, slug+".json")
		mdPath := filepath.Join(dir, slug+".md")

		if err := renderer.RenderJSON(result.Prediction, jsonPath); err != nil {
			summary.failure++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Prediction, result.Path, mdPath); err != nil {
			summary.failure++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		summary.success++
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%.2f%%)\n", result.Path, result.Prediction.Prediction, result.Prediction.Confidence)
	}

	return summary
}

var slugReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// reportSlug derives a unique, filesystem-safe report name from an image path
func reportSlug(path string, seen map[string]int) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := slugReplacer.Replace(base)
	if len(slug) > 100 {
		slug = slug[:100]
	}
	if slug == "" || slug == "." {
		slug = "image"
	}

	seen[slug]++
	if n := seen[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
