package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cocofu92/rs-dashboard/internal/audit"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived scans and selection changes (requires DATABASE_URL)",
	Long: `Lists archived scan runs, newest first, with the tickers that
entered or left the selection compared to the run before.

Example:
  go run ./cmd/rsscan history
  go run ./cmd/rsscan history --limit 5`,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if a.archive == nil {
		return fmt.Errorf("scan archive requires DATABASE_URL")
	}

	// 마지막 행의 diff 계산용으로 하나 더 조회
	records, err := a.archive.History(cmd.Context(), historyLimit+1)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		PrintWarning(os.Stdout, "No archived scans yet. Run: rsscan scan")
		return nil
	}

	PrintHistory(os.Stdout, records, historyLimit)
	return nil
}

// PrintHistory prints up to limit records; records are newest first
func PrintHistory(w io.Writer, records []audit.RunRecord, limit int) {
	PrintHeader(w, "Scan History")

	widths := []int{20, 10, 8, 8, 8, 9}
	PrintTableHeader(w, []string{"Started", "Run", "Mode", "Scored", "Picked", "Turnover"}, widths)

	for i := 0; i < len(records) && i < limit; i++ {
		rec := records[i]
		turnover := "-"
		var diff *audit.SelectionDiff
		if i+1 < len(records) {
			d := audit.Diff(records[i+1], rec)
			diff = &d
			turnover = fmt.Sprintf("%.0f%%", d.Turnover()*100)
			if !d.SameConfig {
				turnover += "*"
			}
		}

		PrintTableRow(w, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(rec.RunID),
			string(rec.Mode),
			fmt.Sprintf("%d", rec.Scored),
			fmt.Sprintf("%d", len(rec.Selected)),
			turnover,
		}, widths)

		if diff != nil && (len(diff.Entered) > 0 || len(diff.Exited) > 0) {
			fmt.Fprintf(w, "    + %s\n", joinOrDash(diff.Entered))
			fmt.Fprintf(w, "    - %s\n", joinOrDash(diff.Exited))
		}
	}
	fmt.Fprintln(w, "\n* strategy changed since the previous run")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func joinOrDash(tickers []string) string {
	if len(tickers) == 0 {
		return "-"
	}
	return strings.Join(tickers, " ")
}
