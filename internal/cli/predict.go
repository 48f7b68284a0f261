package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/model"
	"github.com/ppiankov/wildlens/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON        string
	outMD          string
	commandTimeout time.Duration
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Classify a single image and show facts",
	Long: `Predict classifies one image with the configured backend, looks up the
matching Wikipedia article and prints the selected facts.

Example:
  wildlens predict cobra.jpg
  wildlens predict cobra.jpg --json cobra.json --md cobra.md
  wildlens predict cobra.jpg --provider openai --model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	predictCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	predictCmd.Flags().DurationVar(&commandTimeout, "timeout", 2*time.Minute, "overall timeout")
}

// buildPipeline loads config and wires the pipeline for one-shot commands
func buildPipeline() (*pipeline.Pipeline, *model.Config, logging.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, nil, err
	}

	log := logging.NewNop()
	if verbose {
		if log, err = newLogger(cfg); err != nil {
			return nil, nil, nil, err
		}
	}

	p, err := pipeline.Build(cfg, log, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	return p, cfg, log, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	p, cfg, log, err := buildPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > cfg.Server.MaxUploadBytes {
		return fmt.Errorf("image %s exceeds %d bytes", path, cfg.Server.MaxUploadBytes)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Classifying %s with %s...\n", path, p.Classifier().Name())
	}

	pred, err := p.Predict(ctx, data)
	if err != nil {
		return fmt.Errorf("predict failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	renderer.WritePrediction(cmd.OutOrStdout(), pred)

	if outJSON != "" {
		if err := renderer.RenderJSON(pred, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(pred, path, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	return nil
}
