package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ppiankov/evidentia/internal/audit"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <case-id>",
	Short: "Show recorded runs for a case",
	Long: `History lists past analysis runs recorded in the audit ledger,
newest first. Runs are recorded when analyze or batch is invoked
with --audit.

Example:
  evidentia history 2024-0117 --audit runs.db
  evidentia history 2024-0117 --audit runs.db --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&auditPath, "audit", "", "path to the SQLite ledger (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	_ = historyCmd.MarkFlagRequired("audit")
}

func runHistory(cmd *cobra.Command, args []string) error {
	id := args[0]

	ledger, err := audit.Open(auditPath)
	if err != nil {
		return fmt.Errorf("open audit ledger: %w", err)
	}
	defer func() { _ = ledger.Close() }()

	runs, err := ledger.History(context.Background(), id, historyLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Printf("No recorded runs for case %s\n", id)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tWINDOWS\tFACTS\tPRIMARY\tALIGNED\tDURATION")
	for _, run := range runs {
		primary := run.Primary
		if primary == "" {
			primary = "—"
		}
		aligned := "-"
		if run.Status == "ok" {
			aligned = fmt.Sprintf("%t", run.AlignmentOK)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%dms\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Status,
			run.Windows,
			run.FactsRouted,
			primary,
			aligned,
			run.DurationMS,
		)
	}
	return w.Flush()
}
