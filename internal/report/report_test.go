package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

func TestWrite(t *testing.T) {
	t.Run("WithFlags", func(t *testing.T) {
		var buf bytes.Buffer
		Write(&buf, &domain.Analysis{
			Score:   8,
			Flags:   []string{"url found: http://bad.example", "No organization detected"},
			Verdict: domain.VerdictPhishing,
		})

		out := buf.String()
		for _, want := range []string{
			"Email Analysis Score: 8",
			"- url found: http://bad.example",
			"- No organization detected",
			"Likely phishing attempt.",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("NoFlags", func(t *testing.T) {
		var buf bytes.Buffer
		Write(&buf, &domain.Analysis{Score: 0, Verdict: domain.VerdictSafe})

		out := buf.String()
		if !strings.Contains(out, "- None") {
			t.Errorf("expected None placeholder:\n%s", out)
		}
		if !strings.Contains(out, "Email appears safe.") {
			t.Errorf("expected safe verdict line:\n%s", out)
		}
	})

	t.Run("Suspicious", func(t *testing.T) {
		var buf bytes.Buffer
		Write(&buf, &domain.Analysis{Score: 5, Verdict: domain.VerdictSuspicious})

		if !strings.Contains(buf.String(), "exercise caution") {
			t.Errorf("expected caution verdict line:\n%s", buf.String())
		}
	})
}
