package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/pipeline"
	"github.com/ppiankov/evidentia/internal/verify"
	"github.com/spf13/cobra"
)

var narrativePath string

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <report.json>",
	Short: "Verify a narrative against a report's fact set",
	Long: `Verify checks that every sentence of a narrative is grounded in the
tokens of a previously generated report. Without --narrative it re-checks
the narrative embedded in the report itself.

The check fails if the narrative references unknown tokens, omits declared
tokens, contains ungrounded sentences, or is missing its sentence map.

Example:
  evidentia verify report.json
  evidentia verify report.json --narrative edited-narrative.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&narrativePath, "narrative", "", "external narrative JSON to check (default: the report's own)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	reportPath := args[0]

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}

	narrative := result.Narrative
	if narrativePath != "" {
		data, err := os.ReadFile(narrativePath)
		if err != nil {
			return fmt.Errorf("read narrative: %w", err)
		}
		narrative = &model.Narrative{}
		if err := json.Unmarshal(data, narrative); err != nil {
			return fmt.Errorf("parse narrative: %w", err)
		}
	}
	if narrative == nil {
		return fmt.Errorf("report %s has no narrative; pass one with --narrative", reportPath)
	}

	verifier := verify.New(model.DefaultConfig().Verifier)
	report := verifier.VerifyAlignment(result.Facts, narrative)

	if report.OK {
		fmt.Printf("✓ Narrative verified: %d sentences grounded in %d facts\n", len(narrative.Sentences), len(result.Facts))
		return nil
	}

	fmt.Printf("✗ Narrative REJECTED: %d violations\n\n", len(report.Violations))
	for _, v := range report.Violations {
		switch {
		case v.Token != "":
			fmt.Printf("  - %s: %s\n", v.Issue, v.Token)
		case v.Text != "":
			fmt.Printf("  - %s: %q\n", v.Issue, v.Text)
		default:
			fmt.Printf("  - %s\n", v.Issue)
		}
	}
	if len(report.UnknownTokens) > 0 {
		fmt.Printf("\nUnknown tokens: %v\n", report.UnknownTokens)
	}
	if len(report.MissingTokens) > 0 {
		fmt.Printf("Missing tokens: %v\n", report.MissingTokens)
	}
	os.Exit(1)
	return nil
}
