package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/pipeline"
	"github.com/spf13/cobra"
)

var factsJSON bool

// factsCmd represents the facts command
var factsCmd = &cobra.Command{
	Use:   "facts <label>",
	Short: "Look up facts for an animal name without an image",
	Long: `Facts searches Wikipedia for the label, fetches the best-matching article
and prints the danger, first-aid and habitat sentences found in it.

Example:
  wildlens facts "king cobra"
  wildlens facts tiger --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFacts,
}

func init() {
	rootCmd.AddCommand(factsCmd)

	factsCmd.Flags().BoolVar(&factsJSON, "json", false, "print the result as JSON")
	factsCmd.Flags().DurationVar(&commandTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runFacts(cmd *cobra.Command, args []string) error {
	label := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	p, _, log, err := buildPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	res := p.LookupFacts(ctx, label)

	if factsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode facts: %w", err)
		}
		return nil
	}

	pipeline.NewRenderer().WriteFacts(cmd.OutOrStdout(), res)
	return nil
}
