package rules

import (
	"strings"
	"testing"
)

func TestExtractFeatures(t *testing.T) {
	t.Run("Counts", func(t *testing.T) {
		f := ExtractFeatures("Visit http://a.example and http://b.example now!!")

		if f.URLCount != 2 {
			t.Errorf("expected 2 urls, got %d", f.URLCount)
		}
		if f.ExclamationCount != 2 {
			t.Errorf("expected 2 exclamations, got %d", f.ExclamationCount)
		}
		if f.WordCount != 5 {
			t.Errorf("expected 5 words, got %d", f.WordCount)
		}
	})

	t.Run("CapsRatio", func(t *testing.T) {
		f := ExtractFeatures("ABCD efgh")
		if f.CapsRatio != 0.5 {
			t.Errorf("expected caps ratio 0.5, got %.2f", f.CapsRatio)
		}
	})

	t.Run("Language", func(t *testing.T) {
		f := ExtractFeatures("We have detected unusual activity in your account. Please verify your identity as soon as possible.")
		if f.Language != "eng" {
			t.Errorf("expected eng, got %s", f.Language)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		f := ExtractFeatures("")
		if f.CapsRatio != 0 || f.WordCount != 0 {
			t.Errorf("expected zero features, got %+v", f)
		}
	})
}

func TestExprEngine(t *testing.T) {
	t.Run("TriggeredAndNot", func(t *testing.T) {
		engine, err := NewExprEngine()
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		engine.Load(map[string]string{
			"link_heavy":     `url_count >= 3`,
			"excessive_caps": `caps_ratio > 0.3 && word_count > 5`,
		})

		f := ExtractFeatures("http://a http://b http://c all lowercase words here")
		results := engine.EvaluateAll(f)

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		// Sorted label order: excessive_caps, link_heavy
		if results[0].Triggered {
			t.Error("excessive_caps should not trigger on lowercase text")
		}
		if !results[1].Triggered {
			t.Error("link_heavy should trigger on 3 urls")
		}
	})

	t.Run("NonBoolRejected", func(t *testing.T) {
		engine, _ := NewExprEngine()
		engine.Load(map[string]string{"bad_type": `url_count + 1`})

		results := engine.EvaluateAll(ExtractFeatures("x"))
		if results[0].Err == nil {
			t.Error("expected error for non-bool expression")
		}
		if results[0].Triggered {
			t.Error("broken expression must never trigger")
		}
	})

	t.Run("CompileErrorKeptAsBroken", func(t *testing.T) {
		engine, _ := NewExprEngine()
		engine.Load(map[string]string{
			"broken": `this is not CEL !!!`,
			"ok":     `exclamation_count > 0`,
		})

		results := engine.EvaluateAll(ExtractFeatures("hey!"))
		if results[0].Err == nil {
			t.Error("expected compile error")
		}
		if !strings.Contains(results[0].Err.Error(), "broken") {
			t.Errorf("error should name the label: %v", results[0].Err)
		}
		if !results[1].Triggered {
			t.Error("valid expression should still evaluate")
		}
	})

	t.Run("SenderCount", func(t *testing.T) {
		engine, _ := NewExprEngine()
		engine.Load(map[string]string{"repeat_sender": `sender_count > 10`})

		f := ExtractFeatures("hello")
		f.SenderCount = 25
		results := engine.EvaluateAll(f)
		if !results[0].Triggered {
			t.Error("repeat_sender should trigger")
		}
	})
}
