// Shrike - Persuasion strategy classification for marketing copy.

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

	"github.com/copyintel/shrike/internal/api"
	"github.com/copyintel/shrike/internal/bus"
	"github.com/copyintel/shrike/internal/cache"
	"github.com/copyintel/shrike/internal/classifier"
	"github.com/copyintel/shrike/internal/domain"
	"github.com/copyintel/shrike/internal/enrich"
	"github.com/copyintel/shrike/internal/matcher"
	"github.com/copyintel/shrike/internal/repository"
	"github.com/copyintel/shrike/internal/ruleset"
	"github.com/copyintel/shrike/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("SHRIKE_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting shrike",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("SHRIKE_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	if path := os.Getenv("SHRIKE_RULES"); path != "" {
		cfg.Rules = path
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
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

	// Load typology rules
	rules, err := loadRules(cfg.Rules)
	if err != nil {
		slog.Error("failed to load rules", "path", cfg.Rules, "error", err)
		os.Exit(1)
	}

	if problems := ruleset.Validate(rules); len(problems) > 0 {
		for _, p := range problems {
			slog.Error("rule document problem", "problem", p)
		}
		os.Exit(1)
	}

	m := matcher.New(rules)
	slog.Info("matcher initialized", "typology_count", rules.Len())

	// Initialize Enricher (optional budget-gated LLM layer)
	var enricher domain.Enricher = enrich.Disabled{}
	if cfg.Enrichment.Enabled {
		tracker := enrich.NewCostTracker(cfg.Enrichment.BudgetLimit)
		enricher = enrich.NewClient(cfg.Enrichment, tracker)
		slog.Info("enrichment enabled",
			"model", cfg.Enrichment.Model,
			"budget_usd", cfg.Enrichment.BudgetLimit,
		)
	}

	clsCfg := classifier.Config{
		IncludeDetails:  cfg.Classifier.IncludeDetails,
		IncludeFeatures: cfg.Classifier.IncludeFeatures,
		NormalizeScores: cfg.Classifier.NormalizeScores,
		Workers:         cfg.Classifier.Workers,
	}

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("SHRIKE_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, classifier.New(m, enricher, clsCfg))

		var tenantIDs []string
		if envTenants := os.Getenv("SHRIKE_TENANTS"); envTenants != "" {
			tenantIDs = strings.Split(envTenants, ",")
		}

		if err := asyncWorker.Start(worker.Config{TenantIDs: tenantIDs}); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, m, enricher, clsCfg, cfg.Rules, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("shrike is ready",
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

	slog.Info("shrike shutdown complete")
}

// loadRules reads the rule document from disk, falling back to the
// builtin typology set when no path is configured.
func loadRules(path string) (*domain.RuleSet, error) {
	if path == "" {
		slog.Info("no rule document configured, using builtin typologies")
		return ruleset.Default(), nil
	}
	return ruleset.Load(path)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("                   SHRIKE")
	fmt.Println("      Persuasion Strategy Classification")
	fmt.Println("       Every word has an agenda.")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /classify             - Classify a copy item")
	fmt.Println("    POST /classify/batch       - Classify a batch of items")
	fmt.Println("    POST /campaigns/analyze    - Analyze a campaign batch")
	fmt.Println("    GET  /campaigns/{id}       - Get campaign report by ID")
	fmt.Println("    GET  /classifications      - List recent classifications")
	fmt.Println("    GET  /classifications/{id} - Get classification by ID")
	fmt.Println("    GET  /typologies           - List loaded typologies")
	fmt.Println("    GET  /typologies/{key}     - Get typology by key")
	fmt.Println("    GET  /rules/validate       - Validate the loaded rule set")
	fmt.Println("    POST /rules/reload         - Hot-reload the rule document")
	fmt.Println("    GET  /health               - Health check")
	fmt.Println()
}
