package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/bus"
	"github.com/AamirAhmadDon/phishing-detector/internal/detector"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
	"github.com/AamirAhmadDon/phishing-detector/internal/rules"
)

type orgRecognizer struct{}

func (orgRecognizer) Entities(ctx context.Context, text string) ([]domain.Entity, error) {
	return []domain.Entity{{Text: "PayPal", Label: domain.EntityOrg}}, nil
}

func newTestDetector(t *testing.T) *detector.Detector {
	t.Helper()
	det, err := detector.New(rules.DefaultRuleSet(), orgRecognizer{})
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}
	return det
}

func TestWorkerProcessesEmail(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	w := NewWorker(b, nil, newTestDetector(t))
	if err := w.Start(Config{TenantIDs: []string{"tenant-a"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	results := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
		results <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	payload, _ := json.Marshal(EmailMessage{
		EmailID:  "email-1",
		TenantID: "tenant-a",
		Text:     "Hello, your PayPal statement is attached. Thanks.",
	})
	if err := b.Publish(ctx, "tenant-a", domain.TopicEmailIngested, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-results:
		var analysis domain.Analysis
		if err := json.Unmarshal(msg.Payload, &analysis); err != nil {
			t.Fatalf("failed to parse analysis payload: %v", err)
		}
		if analysis.EmailID != "email-1" {
			t.Errorf("expected email-1, got %s", analysis.EmailID)
		}
		if analysis.Verdict != domain.VerdictSafe {
			t.Errorf("expected safe verdict for benign text, got %s (score %d, flags %v)",
				analysis.Verdict, analysis.Score, analysis.Flags)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for analysis result")
	}
}

func TestWorkerPublishesAlertOnPhishing(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	det, err := detector.New(rules.DefaultRuleSet(), noOrgRecognizer{})
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	w := NewWorker(b, nil, det)
	if err := w.Start(Config{TenantIDs: []string{"tenant-a"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	alerts := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicAlert, func(ctx context.Context, msg *domain.Message) error {
		alerts <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	payload, _ := json.Marshal(EmailMessage{
		EmailID:  "email-2",
		TenantID: "tenant-a",
		Text:     "URGENT: verify your account immediately at http://fakebank-login.example/verify or your account will be suspended",
	})
	if err := b.Publish(ctx, "tenant-a", domain.TopicEmailIngested, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-alerts:
		var analysis domain.Analysis
		if err := json.Unmarshal(msg.Payload, &analysis); err != nil {
			t.Fatalf("failed to parse alert payload: %v", err)
		}
		if analysis.Verdict != domain.VerdictPhishing {
			t.Errorf("alert published for non-phishing verdict %s", analysis.Verdict)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}

type noOrgRecognizer struct{}

func (noOrgRecognizer) Entities(ctx context.Context, text string) ([]domain.Entity, error) {
	return nil, nil
}

func TestWorkerStats(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	w := NewWorker(b, nil, newTestDetector(t))
	if err := w.Start(Config{TenantIDs: []string{"tenant-a", "tenant-b"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stats := w.GetStats()
	if stats.SubscriptionCount != 2 {
		t.Errorf("expected 2 subscriptions, got %d", stats.SubscriptionCount)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if w.GetStats().SubscriptionCount != 0 {
		t.Errorf("expected no subscriptions after stop")
	}
}
