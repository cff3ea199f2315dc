// Package report renders analysis results for the console. Pure
// presentation, no state change.
package report

import (
	"fmt"
	"io"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// Write prints the score, flags ("None" when empty), and verdict.
func Write(w io.Writer, analysis *domain.Analysis) {
	fmt.Fprintln(w, "=== PHISHING DETECTION RESULTS ===")
	fmt.Fprintf(w, "Email Analysis Score: %d\n", analysis.Score)
	fmt.Fprintln(w, "Flags:")

	if len(analysis.Flags) == 0 {
		fmt.Fprintln(w, "- None")
	}
	for _, flag := range analysis.Flags {
		fmt.Fprintf(w, "- %s\n", flag)
	}

	switch analysis.Verdict {
	case domain.VerdictPhishing:
		fmt.Fprintln(w, "🛑 Likely phishing attempt.")
	case domain.VerdictSuspicious:
		fmt.Fprintln(w, "⚠️ Suspicious email, exercise caution.")
	default:
		fmt.Fprintln(w, "✅ Email appears safe.")
	}
}
