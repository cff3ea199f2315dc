package ner

import (
	"context"
	"regexp"
	"strings"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// knownOrgs are organization names recognized regardless of casing or
// corporate markers. Phishing content name-drops these constantly.
var knownOrgs = []string{
	"PayPal", "Microsoft", "Google", "Apple", "Amazon", "Netflix",
	"Facebook", "Instagram", "LinkedIn", "Twitter", "eBay", "Visa",
	"Mastercard", "American Express", "Wells Fargo", "Chase",
	"Bank of America", "HSBC", "Barclays", "Citibank", "IRS",
	"FedEx", "UPS", "DHL", "USPS",
}

// orgMarkers are tokens that mark a capitalized span as an organization
// name ("Acme Inc", "First National Bank").
var orgMarkers = map[string]bool{
	"Inc": true, "Inc.": true, "LLC": true, "Ltd": true, "Ltd.": true,
	"Corp": true, "Corp.": true, "Corporation": true, "Company": true,
	"Bank": true, "Group": true, "Holdings": true, "University": true,
	"Institute": true, "Agency": true, "Association": true,
	"Team": true, "Department": true,
}

// leadingStopwords are capitalized sentence openers and determiners that
// start a span without naming anything ("The Bank", "A Company").
var leadingStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "Your": true, "Our": true,
	"Their": true, "This": true, "Dear": true,
}

var (
	lexURLPattern   = regexp.MustCompile(`https?://\S+`)
	lexEmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Runs of capitalized words, candidates for the marker heuristic
	capitalizedRun = regexp.MustCompile(`(?:\b[A-Z][A-Za-z&.]*\b[ \t]?)+`)
)

// Lexicon is a heuristic recognizer: a built-in lexicon of well-known
// organizations plus a capitalized-span heuristic for corporate markers.
// It also tags URLs and email addresses for context.
type Lexicon struct {
	orgPattern *regexp.Regexp
}

// NewLexicon creates the heuristic recognizer.
func NewLexicon() *Lexicon {
	escaped := make([]string, len(knownOrgs))
	for i, org := range knownOrgs {
		escaped[i] = regexp.QuoteMeta(org)
	}
	return &Lexicon{
		orgPattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`),
	}
}

// Entities returns labeled spans found in the text. It never fails; the
// error is part of the Recognizer contract for remote implementations.
func (l *Lexicon) Entities(ctx context.Context, text string) ([]domain.Entity, error) {
	var entities []domain.Entity

	for _, loc := range l.orgPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, domain.Entity{
			Text:  text[loc[0]:loc[1]],
			Label: domain.EntityOrg,
			Start: loc[0],
			End:   loc[1],
		})
	}

	for _, loc := range capitalizedRun.FindAllStringIndex(text, -1) {
		span := strings.TrimSpace(text[loc[0]:loc[1]])
		if !l.hasMarker(span) {
			continue
		}
		if l.orgPattern.MatchString(span) {
			continue // already covered by the lexicon
		}
		entities = append(entities, domain.Entity{
			Text:  span,
			Label: domain.EntityOrg,
			Start: loc[0],
			End:   loc[0] + len(span),
		})
	}

	for _, loc := range lexURLPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, domain.Entity{
			Text:  text[loc[0]:loc[1]],
			Label: domain.EntityURL,
			Start: loc[0],
			End:   loc[1],
		})
	}

	for _, loc := range lexEmailPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, domain.Entity{
			Text:  text[loc[0]:loc[1]],
			Label: domain.EntityEmail,
			Start: loc[0],
			End:   loc[1],
		})
	}

	return entities, nil
}

// hasMarker reports whether a capitalized span pairs a corporate marker
// with at least one token that actually names something. Leading
// determiners do not count as names, so "The Bank" stays unlabeled while
// "Acme Corp" and "Security Team" do not.
func (l *Lexicon) hasMarker(span string) bool {
	tokens := strings.Fields(span)
	for len(tokens) > 0 && leadingStopwords[tokens[0]] {
		tokens = tokens[1:]
	}

	marker, name := false, false
	for _, tok := range tokens {
		if orgMarkers[tok] {
			marker = true
		} else {
			name = true
		}
	}
	return marker && name
}
