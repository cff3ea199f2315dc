package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Features are the signals extracted from email text that expression
// rules evaluate over. OrgCount and SenderCount are filled in by the
// detector from the recognizer and velocity service.
type Features struct {
	URLCount           int
	ExclamationCount   int
	WordCount          int
	CapsRatio          float64
	Language           string // ISO 639-3 code, e.g. "eng"
	LanguageConfidence float64
	OrgCount           int
	SenderCount        int64
}

// ExtractFeatures computes text-derived features. Language detection uses
// whatlanggo; short texts yield low confidence rather than an error.
func ExtractFeatures(text string) *Features {
	f := &Features{
		URLCount:         len(urlPattern.FindAllString(text, -1)),
		ExclamationCount: strings.Count(text, "!"),
		WordCount:        len(strings.Fields(text)),
	}

	var letters, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters > 0 {
		f.CapsRatio = float64(upper) / float64(letters)
	}

	info := whatlanggo.Detect(text)
	f.Language = whatlanggo.LangToString(info.Lang)
	f.LanguageConfidence = info.Confidence

	return f
}

// Activation returns the CEL variable bindings for these features.
func (f *Features) Activation() map[string]any {
	return map[string]any{
		"url_count":           f.URLCount,
		"exclamation_count":   f.ExclamationCount,
		"word_count":          f.WordCount,
		"caps_ratio":          f.CapsRatio,
		"language":            f.Language,
		"language_confidence": f.LanguageConfidence,
		"org_count":           f.OrgCount,
		"sender_count":        f.SenderCount,
	}
}
