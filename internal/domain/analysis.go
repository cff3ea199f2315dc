package domain

import (
	"time"
)

// Verdict is the three-tier classification of an analyzed email.
type Verdict string

const (
	// VerdictPhishing means the email is likely a phishing attempt.
	VerdictPhishing Verdict = "phishing"

	// VerdictSuspicious means the email warrants caution.
	VerdictSuspicious Verdict = "suspicious"

	// VerdictSafe means no significant indicators were found.
	VerdictSafe Verdict = "safe"
)

// Score thresholds for verdict mapping. Half-open ranges:
// score >= PhishingThreshold is phishing, SuspiciousThreshold <= score <
// PhishingThreshold is suspicious, anything below is safe.
const (
	PhishingThreshold   = 7
	SuspiciousThreshold = 4
)

// VerdictForScore maps a summed indicator score to a verdict.
func VerdictForScore(score int) Verdict {
	switch {
	case score >= PhishingThreshold:
		return VerdictPhishing
	case score >= SuspiciousThreshold:
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

// Analysis represents the complete analysis result for an email.
type Analysis struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	EmailID  string `json:"emailId,omitempty"`

	// Summed integer weights of triggered indicators
	Score int `json:"score"`

	// Ordered human-readable flags
	Flags []string `json:"flags"`

	Verdict   Verdict   `json:"verdict"`
	Timestamp time.Time `json:"timestamp"`

	// Per-indicator detail
	Findings []Finding `json:"findings,omitempty"`

	// Processing metadata
	Metadata AnalysisMetadata `json:"metadata"`
}

// FindingKind identifies which detection stage produced a finding.
type FindingKind string

const (
	FindingPattern    FindingKind = "pattern"
	FindingExpression FindingKind = "expression"
	FindingEntity     FindingKind = "entity"
)

// Finding is a single triggered (or broken) indicator.
type Finding struct {
	Label   string      `json:"label"`
	Kind    FindingKind `json:"kind"`
	Matches []string    `json:"matches,omitempty"`
	Weight  int         `json:"weight"`
	Flag    string      `json:"flag"`
}

// AnalysisMetadata contains processing information.
type AnalysisMetadata struct {
	TraceID           string `json:"traceId,omitempty"`
	PatternsMs        int64  `json:"patternsMs"`
	EntitiesMs        int64  `json:"entitiesMs"`
	TotalMs           int64  `json:"totalMs"`
	PatternsEvaluated int    `json:"patternsEvaluated"`
	EntitiesFound     int    `json:"entitiesFound"`
	EngineVersion     string `json:"engineVersion"`
}

// AnalysisResponse is the API response for an email analysis.
type AnalysisResponse struct {
	AnalysisID string           `json:"analysisId"`
	EmailID    string           `json:"emailId,omitempty"`
	Score      int              `json:"score"`
	Verdict    Verdict          `json:"verdict"`
	Flags      []string         `json:"flags,omitempty"`
	Metadata   AnalysisMetadata `json:"metadata"`
}

// ToResponse converts an Analysis to an API response.
func (a *Analysis) ToResponse() *AnalysisResponse {
	return &AnalysisResponse{
		AnalysisID: a.ID,
		EmailID:    a.EmailID,
		Score:      a.Score,
		Verdict:    a.Verdict,
		Flags:      a.Flags,
		Metadata:   a.Metadata,
	}
}
