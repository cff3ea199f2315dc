// phishd - Phishing detection that deploys in 60 seconds.
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AamirAhmadDon/phishing-detector/internal/api"
	"github.com/AamirAhmadDon/phishing-detector/internal/bus"
	"github.com/AamirAhmadDon/phishing-detector/internal/cache"
	"github.com/AamirAhmadDon/phishing-detector/internal/detector"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
	"github.com/AamirAhmadDon/phishing-detector/internal/ner"
	"github.com/AamirAhmadDon/phishing-detector/internal/repository"
	"github.com/AamirAhmadDon/phishing-detector/internal/rules"
	"github.com/AamirAhmadDon/phishing-detector/internal/velocity"
	"github.com/AamirAhmadDon/phishing-detector/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("PHISH_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting phishd",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("PHISH_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	if path := os.Getenv("PHISH_RULESET"); path != "" {
		cfg.RulesetPath = path
	}
	if url := os.Getenv("PHISH_NER"); url != "" {
		cfg.Recognizer = domain.RecognizerConfig{Type: "http", URL: url}
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"recognizer", cfg.Recognizer.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize NER recognizer
	recognizer, err := ner.New(cfg.Recognizer)
	if err != nil {
		slog.Error("failed to initialize recognizer", "error", err)
		os.Exit(1)
	}
	slog.Info("recognizer initialized", "type", cfg.Recognizer.Type)

	// Initialize Velocity Service
	velocitySvc := velocity.NewService(repo, cacheImpl)

	// Load the rule set: file takes precedence, then database rules,
	// then the built-in defaults.
	rs, source, err := loadRuleSet(ctx, cfg, repo)
	if err != nil {
		slog.Error("failed to load ruleset", "error", err)
		os.Exit(1)
	}
	slog.Info("ruleset loaded",
		"source", source,
		"patterns", len(rs.SuspiciousPatterns),
		"expressions", len(rs.ExpressionRules),
	)

	// Initialize Detector
	det, err := detector.New(rs, recognizer,
		detector.WithSenderGetter(velocitySvc.GetSenderGetter()),
		detector.WithEntityCache(cacheImpl),
	)
	if err != nil {
		slog.Error("failed to initialize detector", "error", err)
		os.Exit(1)
	}
	slog.Info("detector initialized", "engine_version", detector.EngineVersion)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("PHISH_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, det)

		var tenantIDs []string
		if envTenants := os.Getenv("PHISH_TENANTS"); envTenants != "" {
			tenantIDs = strings.Split(envTenants, ",")
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, det, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("phishd is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("phishd shutdown complete")
}

// loadRuleSet resolves the active rule set. A configured file wins;
// otherwise persisted rules are used when present, and the built-in
// defaults cover a fresh install.
func loadRuleSet(ctx context.Context, cfg *domain.Config, repo domain.Repository) (*domain.RuleSet, string, error) {
	if cfg.RulesetPath != "" {
		rs, err := rules.LoadRuleSet(cfg.RulesetPath)
		if err != nil {
			return nil, "", err
		}
		return rs, "file:" + cfg.RulesetPath, nil
	}

	dbRules, err := repo.ListRuleConfigs(ctx, api.GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
	}
	if len(dbRules) > 0 {
		return domain.RuleSetFromConfigs(dbRules), "database", nil
	}

	return rules.DefaultRuleSet(), "builtin", nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("               PHISHD")
	fmt.Println("       Email Phishing Detection Engine")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /analyze         - Analyze an email")
	fmt.Println("    GET  /analyses/{id}   - Get analysis by ID")
	fmt.Println("    GET  /emails/{id}     - Get email by ID")
	fmt.Println("    GET  /rules           - List loaded rules")
	fmt.Println("    POST /rules           - Create a new rule")
	fmt.Println("    DELETE /rules/{id}    - Delete a rule")
	fmt.Println("    POST /rules/reload    - Hot-reload rules from database")
	fmt.Println("    GET  /health          - Health check")
	fmt.Println()
}
