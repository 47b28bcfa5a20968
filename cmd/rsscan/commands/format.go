package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/export"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const lineWidth = 72

// PrintHeader prints a titled box header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", lineWidth))
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("─", lineWidth))
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", lineWidth))
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		if i < len(values)-1 {
			fmt.Fprintf(w, "%-*s  ", widths[i], val)
		} else {
			fmt.Fprintf(w, "%-*s", widths[i], val)
		}
	}
	fmt.Fprintln(w)
}

// SummaryLine is the one-line headline of a scan
func SummaryLine(result *contracts.ScanResult) string {
	return fmt.Sprintf("Top %.1f%% performers out of %d stocks", result.TopPercent(), result.Summary.Scored)
}

// PrintScanResult renders the selection table and run summary
func PrintScanResult(w io.Writer, result *contracts.ScanResult) {
	PrintHeader(w, "RS Scan "+result.StartedAt.Format("2006-01-02 15:04"))
	PrintKeyValue(w, "Run ID", result.RunID, 10)
	PrintKeyValue(w, "Mode", string(result.Mode), 10)
	if result.Benchmark.Available {
		PrintKeyValue(w, "Benchmark", fmt.Sprintf("%s %+.2f%%", result.Benchmark.Ticker, result.Benchmark.WeightedReturn*100), 10)
	} else {
		PrintKeyValue(w, "Benchmark", fmt.Sprintf("%s unavailable (%s)", result.Benchmark.Ticker, result.Benchmark.Reason), 10)
	}
	PrintKeyValue(w, "Duration", result.Duration().Round(time.Millisecond).String(), 10)
	PrintSeparator(w)

	columns := []string{"#", "TICKER", "RS%", "REL", "RETURN", "PRICE", "AVG VOL"}
	widths := []int{4, 8, 6, 7, 9, 10, 12}
	PrintTableHeader(w, columns, widths)

	for _, r := range export.Rows(result.Selected) {
		rel := "-"
		if r.RelativeScore != nil {
			rel = fmt.Sprintf("%.2f", *r.RelativeScore)
		}
		PrintTableRow(w, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Ticker,
			fmt.Sprintf("%.1f", r.RSPercentile),
			rel,
			fmt.Sprintf("%+.2f%%", r.WeightedReturn*100),
			fmt.Sprintf("%.2f", r.LastPrice),
			formatVolume(r.AvgVolume),
		}, widths)
	}

	PrintSeparator(w)
	s := result.Summary
	fmt.Fprintf(w, "   universe %d · scanned %d · fetched %d · scored %d · passed %d · selected %d\n",
		s.UniverseSize, s.Scanned, s.Fetched, s.Scored, s.Passed, s.Selected)
	if len(s.Excluded) > 0 {
		fmt.Fprintf(w, "   excluded %s\n", formatExcluded(s.Excluded))
	}
	for _, warning := range result.Warnings {
		PrintWarning(w, warning)
	}
	fmt.Fprintln(w)
	PrintSuccess(w, SummaryLine(result))
}

func formatVolume(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%.0f", v)
}

// formatExcluded prints reasons in a fixed order
func formatExcluded(excluded map[string]int) string {
	order := []string{
		contracts.ReasonTransport, contracts.ReasonRemote, contracts.ReasonInsufficientHistory,
		contracts.ReasonInvalidComputation, contracts.ReasonTimeout, contracts.ReasonPanic,
		contracts.ReasonCanceled, contracts.ReasonOther,
	}
	parts := make([]string, 0, len(excluded))
	for _, reason := range order {
		if n := excluded[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	return strings.Join(parts, " ")
}
