package domain

import (
	"context"
)

// Entity labels the detector knows about. Only ORG drives scoring; the
// rest provide context in analysis output.
const (
	EntityOrg   = "ORG"
	EntityURL   = "URL"
	EntityEmail = "EMAIL"
)

// Entity is a labeled span of text produced by a named-entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Recognizer is the external NER collaborator contract: given text, return
// labeled entity spans. Implementations may be a local heuristic or a
// remote model service.
type Recognizer interface {
	Entities(ctx context.Context, text string) ([]Entity, error)
}

// HasOrg reports whether any entity in the list carries the ORG label.
func HasOrg(entities []Entity) bool {
	for _, e := range entities {
		if e.Label == EntityOrg {
			return true
		}
	}
	return false
}

// RecognizerConfig holds configuration for recognizer construction.
type RecognizerConfig struct {
	// Type is the recognizer type: "lexicon" or "http"
	Type string `json:"type"`

	// HTTP settings (remote NER service)
	URL         string `json:"url,omitempty"`
	TimeoutSecs int    `json:"timeoutSecs,omitempty"`
}
