package domain

import (
	"time"
)

// Email represents an incoming email to be analyzed.
type Email struct {
	// Core identifiers
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`

	// Envelope details
	Sender  string `json:"sender,omitempty"`
	Subject string `json:"subject,omitempty"`

	// Free-text content the detector scores
	Text string `json:"text"`

	// Temporal
	ReceivedAt time.Time `json:"receivedAt"`
	CreatedAt  time.Time `json:"createdAt"`

	// Optional metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AnalyzeRequest is the API request payload for email analysis.
type AnalyzeRequest struct {
	Text     string                 `json:"text"`
	Sender   string                 `json:"sender,omitempty"`
	Subject  string                 `json:"subject,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToEmail converts a request to an Email domain object.
func (r *AnalyzeRequest) ToEmail(tenantID string) *Email {
	now := time.Now().UTC()
	return &Email{
		TenantID:   tenantID,
		Sender:     r.Sender,
		Subject:    r.Subject,
		Text:       r.Text,
		ReceivedAt: now,
		CreatedAt:  now,
		Metadata:   r.Metadata,
	}
}
