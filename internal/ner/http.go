package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// HTTPRecognizer is a client for a remote NER service (typically a
// model server). Contract: POST {"text": ...} to the endpoint, receive
// {"entities": [{"text", "label", "start", "end"}]}.
type HTTPRecognizer struct {
	url    string
	client *http.Client
}

// NewHTTPRecognizer creates a remote recognizer client. Fails when no
// endpoint is configured; this aborts detector construction.
func NewHTTPRecognizer(url string, timeoutSecs int) (*HTTPRecognizer, error) {
	if url == "" {
		return nil, fmt.Errorf("ner service url is required")
	}
	if timeoutSecs <= 0 {
		timeoutSecs = 10
	}

	return &HTTPRecognizer{
		url: url,
		client: &http.Client{
			Timeout: time.Duration(timeoutSecs) * time.Second,
		},
	}, nil
}

type entityRequest struct {
	Text string `json:"text"`
}

type entityResponse struct {
	Entities []domain.Entity `json:"entities"`
}

// Entities asks the remote service for labeled spans.
func (r *HTTPRecognizer) Entities(ctx context.Context, text string) ([]domain.Entity, error) {
	body, err := json.Marshal(entityRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner service returned %d: %s", resp.StatusCode, snippet)
	}

	var out entityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode ner response: %w", err)
	}

	return out.Entities, nil
}
