//go:build integration
// +build integration

// Package integration provides end-to-end tests for the phishing
// detection service.
//
// These tests verify the COMPLETE analysis pipeline:
//
//	Email → Patterns → Features/Expressions → NER → Score → Verdict
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
// 1. PATTERN: A labeled regex matched case-insensitively against the
//    email text. Each match contributes the label's weight to the score.
//
// 2. EXPRESSION: A CEL formula over extracted text features (URL count,
//    caps ratio, sender velocity). A true result contributes its weight.
//
// 3. MISSING ORGANIZATION: If the recognizer finds no ORG entity, the
//    missing_organization weight is added. Legitimate mail almost always
//    names a company.
//
// 4. VERDICT: score >= 7 → phishing, 4-6 → suspicious, below 4 → safe.
//
// The service must be running with the built-in rule set (no
// PHISH_RULESET override, empty rules database).
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL  string
	TenantID string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("PHISH_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{
		BaseURL:  baseURL,
		TenantID: "test-tenant",
	}
}

// AnalyzeRequest is the email sent to POST /analyze
type AnalyzeRequest struct {
	Text    string `json:"text"`
	Sender  string `json:"sender,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// AnalyzeResponse is what POST /analyze returns
type AnalyzeResponse struct {
	AnalysisID string           `json:"analysisId"`
	EmailID    string           `json:"emailId"`
	Score      int              `json:"score"`
	Verdict    string           `json:"verdict"` // "phishing", "suspicious", "safe"
	Flags      []string         `json:"flags"`
	Metadata   ResponseMetadata `json:"metadata"`
}

type ResponseMetadata struct {
	TraceID       string `json:"traceId"`
	TotalMs       int64  `json:"totalMs"`
	EngineVersion string `json:"engineVersion"`
}

func analyze(t *testing.T, config TestConfig, req AnalyzeRequest) AnalyzeResponse {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequest("POST", config.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", config.TenantID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(respBody))
	}

	var result AnalyzeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(respBody))
	}

	return result
}

func postRaw(t *testing.T, config TestConfig, body string, tenant string) *http.Response {
	t.Helper()

	httpReq, _ := http.NewRequest("POST", config.BaseURL+"/analyze", bytes.NewReader([]byte(body)))
	httpReq.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		httpReq.Header.Set("X-Tenant-ID", tenant)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

// SCENARIO 1: A legitimate email naming a known organization.
// No pattern fires, an ORG entity is found, score stays below the
// suspicious threshold.
func TestLegitimateEmail_Safe(t *testing.T) {
	config := getTestConfig()

	result := analyze(t, config, AnalyzeRequest{
		Text:   "Hi, your Microsoft invoice for March is attached. Reply if anything looks wrong. Thanks!",
		Sender: "billing@example.com",
	})

	if result.Verdict != "safe" {
		t.Errorf("Expected safe verdict, got %s (score %d, flags %v)",
			result.Verdict, result.Score, result.Flags)
	}

	t.Logf("✓ Legitimate email: verdict=%s, score=%d", result.Verdict, result.Score)
}

// SCENARIO 2: A classic credential lure. Urgency, a plain-http link,
// account verification phrasing, and no named organization stack well
// past the phishing threshold.
func TestCredentialLure_Phishing(t *testing.T) {
	config := getTestConfig()

	result := analyze(t, config, AnalyzeRequest{
		Text: "URGENT: Your account will be suspended within 24 hours. " +
			"Verify your identity immediately at http://fakebank-login.example/verify",
		Sender: "security@fakebank-login.example",
	})

	if result.Verdict != "phishing" {
		t.Errorf("Expected phishing verdict, got %s (score %d)", result.Verdict, result.Score)
	}
	if result.Score < 7 {
		t.Errorf("Expected score >= 7, got %d", result.Score)
	}
	if len(result.Flags) == 0 {
		t.Error("Expected flags explaining the verdict")
	}

	t.Logf("✓ Credential lure: verdict=%s, score=%d, flags=%v",
		result.Verdict, result.Score, result.Flags)
}

// SCENARIO 3: A mildly pushy email. One or two weak indicators should
// land in the suspicious band, not phishing.
func TestPushyEmail_Suspicious(t *testing.T) {
	config := getTestConfig()

	// urgent_language (2) + missing_organization (2) = 4, suspicious band
	result := analyze(t, config, AnalyzeRequest{
		Text:   "Please review the attached form and respond immediately so we can close this out today.",
		Sender: "ops@example.com",
	})

	if result.Verdict != "suspicious" {
		t.Errorf("Expected suspicious verdict, got %s (score %d, flags %v)",
			result.Verdict, result.Score, result.Flags)
	}
	if result.Score < 4 || result.Score >= 7 {
		t.Errorf("Expected score in [4,7), got %d", result.Score)
	}

	t.Logf("✓ Pushy email: verdict=%s, score=%d", result.Verdict, result.Score)
}

// SCENARIO 4: Validation. Empty and whitespace-only text are rejected
// before any scoring happens.
func TestEmptyText_Error(t *testing.T) {
	config := getTestConfig()

	for _, body := range []string{`{"text":""}`, `{"text":"   "}`, `{}`} {
		resp := postRaw(t, config, body, config.TenantID)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", body, resp.StatusCode)
		}
	}

	t.Logf("✓ Validation: empty text → HTTP 400")
}

func TestMissingTenantHeader_Error(t *testing.T) {
	config := getTestConfig()

	resp := postRaw(t, config, `{"text":"hello"}`, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing tenant, got %d", resp.StatusCode)
	}

	t.Logf("✓ Validation: missing tenant → HTTP %d", resp.StatusCode)
}

// SCENARIO 5: Response metadata contract. Clients depend on these
// fields being present.
func TestResponseMetadata(t *testing.T) {
	config := getTestConfig()

	result := analyze(t, config, AnalyzeRequest{
		Text: "Quick question about the Amazon order from last week.",
	})

	if result.AnalysisID == "" {
		t.Error("Missing analysisId")
	}
	if result.EmailID == "" {
		t.Error("Missing emailId")
	}
	if result.Verdict != "phishing" && result.Verdict != "suspicious" && result.Verdict != "safe" {
		t.Errorf("Invalid verdict: %s", result.Verdict)
	}
	if result.Metadata.EngineVersion == "" {
		t.Error("Missing metadata.engineVersion")
	}
	if result.Metadata.TotalMs < 0 {
		t.Error("Invalid metadata.totalMs (negative)")
	}

	t.Logf("✓ Metadata complete: analysisId=%s, engine=%s, totalMs=%d",
		result.AnalysisID[:8], result.Metadata.EngineVersion, result.Metadata.TotalMs)
}

// SCENARIO 6: Stored analyses are retrievable and tenant-scoped.
func TestAnalysisRetrieval(t *testing.T) {
	config := getTestConfig()

	result := analyze(t, config, AnalyzeRequest{
		Text: "Reminder: the PayPal invoice is due on Friday.",
	})

	get := func(tenant string) int {
		req, _ := http.NewRequest("GET", config.BaseURL+"/analyses/"+result.AnalysisID, nil)
		req.Header.Set("X-Tenant-ID", tenant)
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}

	if code := get(config.TenantID); code != http.StatusOK {
		t.Errorf("Expected 200 for own tenant, got %d", code)
	}
	if code := get("other-tenant"); code != http.StatusNotFound {
		t.Errorf("Expected 404 for other tenant, got %d", code)
	}

	t.Logf("✓ Analysis retrieval is tenant-scoped")
}
