// Package display formats human-facing output: the startup banner, byte
// sizes, and the end-of-run summary block.
package display

import (
	"fmt"
	"io"
	"strings"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// Plural returns "1 file" or "3 files".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Row is one label/value line of a summary block.
type Row struct {
	Label string
	Value string
}

// PrintSummary writes a titled block of aligned rows to w.
func PrintSummary(w io.Writer, title string, rows []Row) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}
	rule := strings.Repeat("-", max(len(title), width+12))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
	for _, r := range rows {
		fmt.Fprintf(w, "  %-*s  %s\n", width+1, r.Label+":", r.Value)
	}
}
