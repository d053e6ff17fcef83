package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/ternarybob/vitrine/internal/models"
)

// PrintSummary writes a per-scenario pass/fail table followed by totals
func PrintSummary(w io.Writer, rep *models.RunReport) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintln(w, "╔════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(w, "║                 Storefront Smoke Summary                   ║")
	cyan.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintf(w, "Run: %s | Engine: %s\n\n", rep.RunID, rep.Engine)

	for _, res := range rep.Results {
		duration := res.Duration.Round(time.Millisecond)
		switch res.Status {
		case models.StatusPassed:
			green.Fprintf(w, "  ✓ %-14s", res.Name)
			fmt.Fprintf(w, " %s\n", duration)
		case models.StatusFailed:
			red.Fprintf(w, "  ✗ %-14s", res.Name)
			fmt.Fprintf(w, " %s\n", duration)
			fmt.Fprintf(w, "      %s\n", res.Error)
			for _, m := range Missing(res.Selectors) {
				yellow.Fprintf(w, "      selector %q (%s) matched nothing\n", m.Selector, m.Role)
			}
			if res.Screenshot != "" {
				fmt.Fprintf(w, "      screenshot: %s\n", res.Screenshot)
			}
		case models.StatusSkipped:
			yellow.Fprintf(w, "  - %-14s", res.Name)
			fmt.Fprintf(w, " skipped\n")
		}
	}

	passed, failed, skipped := rep.Counts()
	fmt.Fprintln(w)
	green.Fprintf(w, "Passed: %d", passed)
	fmt.Fprint(w, " | ")
	if failed > 0 {
		red.Fprintf(w, "Failed: %d", failed)
	} else {
		fmt.Fprintf(w, "Failed: %d", failed)
	}
	fmt.Fprintf(w, " | Skipped: %d | Duration: %s\n", skipped, rep.Duration().Round(time.Millisecond))
	if rep.ResultsDir != "" {
		fmt.Fprintf(w, "Results: %s\n", rep.ResultsDir)
	}
}
