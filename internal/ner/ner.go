// Package ner provides named-entity recognizer implementations.
// The detector only needs the external-collaborator contract
// (domain.Recognizer); this package ships a local heuristic recognizer
// and a client for a remote NER service.
package ner

import (
	"fmt"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// New creates a recognizer based on configuration.
// For Community tier: returns the lexicon recognizer.
// For Pro tier: returns a client for a remote NER service.
func New(cfg domain.RecognizerConfig) (domain.Recognizer, error) {
	switch cfg.Type {
	case "", "lexicon":
		return NewLexicon(), nil

	case "http":
		return NewHTTPRecognizer(cfg.URL, cfg.TimeoutSecs)

	default:
		return nil, fmt.Errorf("unsupported recognizer type: %s", cfg.Type)
	}
}
