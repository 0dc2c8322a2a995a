package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// formatSize renders a byte count in a compact human unit, e.g. "1.2 MB".
// Units are binary multiples; anything past terabytes stays in TB.
func formatSize(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// formatTime renders a timestamp ls style: clock time within the current
// year, the year otherwise.
func formatTime(t time.Time) string {
	layout := "Jan _2 15:04"
	if t.Year() != time.Now().Year() {
		layout = "Jan _2  2006"
	}

	return t.Format(layout)
}

// printTable writes aligned columns to w. headers and every row must have
// the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// progressEnabled reports whether transfer progress should be rendered:
// only on an interactive stderr, and never in quiet mode.
func progressEnabled() bool {
	if flagQuiet {
		return false
	}

	return isTerminal(os.Stderr)
}
