package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/pipeline"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Run a single claim query against the indexed documents",
	Long: `Runs one query through the full decisioning pipeline and prints the
answer plus the structured decision. Example:

  clauselens ask "46-year-old male, knee surgery in Pune, 3-month-old policy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pipe, _, _, err := buildPipeline(context.Background(), cfg)
		if err != nil {
			return err
		}

		result, err := pipe.Decide(context.Background(), pipeline.Request{Query: query})
		if err != nil {
			if errors.Is(err, pipeline.ErrNoIndex) {
				return fmt.Errorf("no documents to query: put documents in %s and run `clauselens index`", cfg.DataDir)
			}
			return err
		}

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printDecision(result)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw JSON result")
	rootCmd.AddCommand(askCmd)
}

func printDecision(result *extract.DecisionResult) {
	if result.Answer != nil {
		fmt.Printf("Answer: %s\n", *result.Answer)
	}
	if result.Decision == nil {
		return
	}
	fmt.Printf("Decision: %s\n", *result.Decision)
	if result.Amount != nil {
		fmt.Printf("Amount: %.2f\n", *result.Amount)
	}
	if result.Justification != nil {
		fmt.Printf("Justification: %s\n", *result.Justification)
	}
	for _, m := range result.ClauseMapping {
		clause, reason := "", ""
		if m.Clause != nil {
			clause = *m.Clause
		}
		if m.Reason != nil {
			reason = *m.Reason
		}
		fmt.Printf("  - %s: %s\n", clause, reason)
	}
}
