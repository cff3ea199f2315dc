package ner

import (
	"context"
	"testing"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

func orgTexts(entities []domain.Entity) []string {
	var orgs []string
	for _, e := range entities {
		if e.Label == domain.EntityOrg {
			orgs = append(orgs, e.Text)
		}
	}
	return orgs
}

func TestLexicon(t *testing.T) {
	lex := NewLexicon()
	ctx := context.Background()

	t.Run("KnownOrg", func(t *testing.T) {
		entities, err := lex.Entities(ctx, "Your PayPal account has been limited.")
		if err != nil {
			t.Fatalf("Entities failed: %v", err)
		}
		orgs := orgTexts(entities)
		if len(orgs) != 1 || orgs[0] != "PayPal" {
			t.Errorf("expected [PayPal], got %v", orgs)
		}
	})

	t.Run("KnownOrgCaseInsensitive", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "a message from PAYPAL support")
		if !domain.HasOrg(entities) {
			t.Error("expected ORG entity for PAYPAL")
		}
	})

	t.Run("MarkerHeuristic", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "Invoice attached from Acme Corp for review.")
		orgs := orgTexts(entities)
		if len(orgs) != 1 || orgs[0] != "Acme Corp" {
			t.Errorf("expected [Acme Corp], got %v", orgs)
		}
	})

	t.Run("MarkerAloneIsNotOrg", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "The Bank is closed today.")
		if domain.HasOrg(entities) {
			t.Errorf("lone marker should not produce an ORG, got %v", orgTexts(entities))
		}
	})

	t.Run("ArticleBeforeMarkerIsNotOrg", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "A Company announcement follows.")
		if domain.HasOrg(entities) {
			t.Errorf("determiner plus marker should not produce an ORG, got %v", orgTexts(entities))
		}
	})

	t.Run("TeamMarker", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "Questions? Contact the Security Team for help.")
		orgs := orgTexts(entities)
		if len(orgs) != 1 || orgs[0] != "Security Team" {
			t.Errorf("expected [Security Team], got %v", orgs)
		}
	})

	t.Run("DepartmentMarker", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "the Fraud Department flagged your message")
		if !domain.HasOrg(entities) {
			t.Error("expected ORG entity for Fraud Department")
		}
	})

	t.Run("NoOrg", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "please verify your identity within 24 hours")
		if domain.HasOrg(entities) {
			t.Errorf("expected no ORG, got %v", orgTexts(entities))
		}
	})

	t.Run("URLAndEmail", func(t *testing.T) {
		entities, _ := lex.Entities(ctx, "contact support@example.com or visit http://example.com/help")

		var labels []string
		for _, e := range entities {
			labels = append(labels, e.Label)
		}

		hasURL, hasEmail := false, false
		for _, l := range labels {
			if l == domain.EntityURL {
				hasURL = true
			}
			if l == domain.EntityEmail {
				hasEmail = true
			}
		}
		if !hasURL || !hasEmail {
			t.Errorf("expected URL and EMAIL entities, got %v", labels)
		}
	})

	t.Run("Spans", func(t *testing.T) {
		text := "Dear PayPal user"
		entities, _ := lex.Entities(ctx, text)
		for _, e := range entities {
			if text[e.Start:e.End] != e.Text {
				t.Errorf("span mismatch: %q vs %q", text[e.Start:e.End], e.Text)
			}
		}
	})
}
