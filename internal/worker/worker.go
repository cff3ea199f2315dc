// Package worker provides async email processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/detector"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

// Worker analyzes emails asynchronously from the EventBus.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	detector *detector.Detector

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, det *detector.Detector) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		detector: det,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicEmailIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicEmailIngested, func(ctx context.Context, msg *domain.Message) error {
		return w.processEmail(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicEmailIngested,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processEmail(ctx, msg.TenantID, msg)
}

// EmailMessage is the message payload for async email analysis.
type EmailMessage struct {
	EmailID  string `json:"emailId"`
	TenantID string `json:"tenantId"`
	TraceID  string `json:"traceId"`
	Sender   string `json:"sender,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Text     string `json:"text"`
}

// processEmail runs one email through the detection pipeline.
func (w *Worker) processEmail(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var emailMsg EmailMessage
	if err := json.Unmarshal(msg.Payload, &emailMsg); err != nil {
		slog.Error("failed to parse email message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if emailMsg.TenantID != "" {
		tenantID = emailMsg.TenantID
	}

	traceID := emailMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("analyzing email",
		"email_id", emailMsg.EmailID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	analysis, err := w.detector.Analyze(ctx, &detector.Input{
		TenantID: tenantID,
		EmailID:  emailMsg.EmailID,
		TraceID:  traceID,
		Sender:   emailMsg.Sender,
		Text:     emailMsg.Text,
	})
	if err != nil {
		slog.Error("email analysis failed",
			"email_id", emailMsg.EmailID,
			"error", err,
		)
		return err
	}

	if w.repo != nil {
		if err := w.repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			slog.Error("failed to save analysis",
				"email_id", emailMsg.EmailID,
				"error", err,
			)
		}
	}

	resultPayload, _ := json.Marshal(analysis)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, resultPayload); err != nil {
		slog.Error("failed to publish analysis result",
			"email_id", emailMsg.EmailID,
			"error", err,
		)
	}

	if analysis.Verdict == domain.VerdictPhishing {
		if err := w.bus.Publish(ctx, tenantID, domain.TopicAlert, resultPayload); err != nil {
			slog.Error("failed to publish alert",
				"email_id", emailMsg.EmailID,
				"error", err,
			)
		}
	}

	slog.Info("email analyzed",
		"email_id", emailMsg.EmailID,
		"tenant_id", tenantID,
		"verdict", analysis.Verdict,
		"score", analysis.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
