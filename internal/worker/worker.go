// Package worker provides async batch classification for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/copyintel/shrike/internal/classifier"
	"github.com/copyintel/shrike/internal/distribution"
	"github.com/copyintel/shrike/internal/domain"
	"github.com/google/uuid"
)

// Worker processes copy batches asynchronously from the EventBus.
type Worker struct {
	bus        domain.EventBus
	repo       domain.Repository
	classifier *classifier.Classifier

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = global subscription)
	TenantIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, cls *classifier.Classifier) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        bus,
		repo:       repo,
		classifier: cls,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins processing batches for the given tenants.
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
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicCopyIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts a worker for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicCopyIngested, func(ctx context.Context, msg *domain.Message) error {
		return w.processBatch(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicCopyIngested,
	)

	return nil
}

// handleMessage handles messages from the global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processBatch(ctx, msg.TenantID, msg)
}

// BatchMessage is the message payload for batch classification.
type BatchMessage struct {
	BatchID      string        `json:"batchId"`
	TenantID     string        `json:"tenantId"`
	TraceID      string        `json:"traceId"`
	CampaignName string        `json:"campaignName,omitempty"`
	Items        []domain.Item `json:"items"`
}

// processBatch classifies a batch, persists results, and publishes a
// campaign report when a campaign name is set.
func (w *Worker) processBatch(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var batch BatchMessage
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		slog.Error("failed to parse batch message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if batch.TenantID != "" {
		tenantID = batch.TenantID
	}
	if batch.BatchID == "" {
		batch.BatchID = msg.ID
	}

	slog.Debug("processing batch",
		"batch_id", batch.BatchID,
		"tenant_id", tenantID,
		"item_count", len(batch.Items),
	)

	// 1. Classify
	results := w.classifier.ClassifyBatch(ctx, batch.Items)

	// 2. Persist classifications
	if w.repo != nil {
		for _, cls := range results {
			if err := w.repo.SaveClassification(ctx, tenantID, cls); err != nil {
				slog.Error("failed to save classification",
					"batch_id", batch.BatchID,
					"item_id", cls.ID,
					"error", err,
				)
			}
		}
	}

	// 3. Publish per-batch completion
	donePayload, _ := json.Marshal(results)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicClassificationDone, donePayload); err != nil {
		slog.Error("failed to publish classification results",
			"batch_id", batch.BatchID,
			"error", err,
		)
	}

	// 4. Campaign analysis when requested
	if batch.CampaignName != "" {
		summary := distribution.Analyze(results)
		report := &domain.CampaignReport{
			ID:              uuid.New().String(),
			CampaignName:    batch.CampaignName,
			TotalItems:      summary.TotalItems,
			Distribution:    summary,
			Insights:        distribution.Insights(results, summary),
			Recommendations: distribution.Recommendations(summary),
			CreatedAt:       time.Now().UTC(),
		}

		if w.repo != nil {
			if err := w.repo.SaveCampaignReport(ctx, tenantID, report); err != nil {
				slog.Error("failed to save campaign report",
					"batch_id", batch.BatchID,
					"campaign", batch.CampaignName,
					"error", err,
				)
			}
		}

		reportPayload, _ := json.Marshal(report)
		if err := w.bus.Publish(ctx, tenantID, domain.TopicCampaignReport, reportPayload); err != nil {
			slog.Error("failed to publish campaign report",
				"batch_id", batch.BatchID,
				"error", err,
			)
		}
	}

	slog.Info("batch processed",
		"batch_id", batch.BatchID,
		"tenant_id", tenantID,
		"item_count", len(batch.Items),
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
