package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/copyintel/shrike/internal/classifier"
	"github.com/copyintel/shrike/internal/distribution"
	"github.com/copyintel/shrike/internal/domain"
	"github.com/copyintel/shrike/internal/export"
	"github.com/copyintel/shrike/internal/filter"
	"github.com/copyintel/shrike/internal/matcher"
	"github.com/copyintel/shrike/internal/ruleset"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	enricher domain.Enricher
	clsCfg   classifier.Config
	version  string

	// rulesPath is re-read on POST /rules/reload. Empty means builtin rules.
	rulesPath string

	mu         sync.RWMutex
	matcher    *matcher.Matcher
	classifier *classifier.Classifier
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, m *matcher.Matcher, enricher domain.Enricher, clsCfg classifier.Config, rulesPath, version string) *Handler {
	return &Handler{
		repo:       repo,
		cache:      cache,
		bus:        bus,
		enricher:   enricher,
		clsCfg:     clsCfg,
		version:    version,
		rulesPath:  rulesPath,
		matcher:    m,
		classifier: classifier.New(m, enricher, clsCfg),
	}
}

func (h *Handler) getClassifier() *classifier.Classifier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.classifier
}

func (h *Handler) getMatcher() *matcher.Matcher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.matcher
}

// ClassifyRequest is the request body for POST /classify.
type ClassifyRequest struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Industry string `json:"industry,omitempty"`
}

// Classify handles POST /classify requests.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	// Check cache by text digest. The industry hint feeds the
	// enrichment, so it is part of the cache key.
	digest := textDigest(req.Industry + "\x00" + req.Text)
	if h.cache != nil {
		cached, err := h.cache.GetClassification(ctx, tenantID, digest)
		if err != nil {
			slog.Warn("classification cache lookup failed", "error", err)
		}
		if cached != nil {
			cached.ID = id
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	cls := h.getClassifier().ClassifyItem(ctx, domain.Item{
		ID:       id,
		Text:     req.Text,
		Industry: req.Industry,
	})

	if h.cache != nil && cls.Error == "" {
		if err := h.cache.SetClassification(ctx, tenantID, digest, cls, time.Hour); err != nil {
			slog.Warn("classification cache store failed", "error", err)
		}
	}

	if h.repo != nil {
		if err := h.repo.SaveClassification(ctx, tenantID, cls); err != nil {
			slog.Error("failed to save classification", "id", cls.ID, "error", err)
		}
	}

	slog.Debug("copy classified",
		"id", cls.ID,
		"labels", cls.LabelCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, cls)
}

// BatchRequest is the request body for POST /classify/batch and
// POST /campaigns/analyze. Items may be plain strings or objects with
// id and text fields.
type BatchRequest struct {
	Items        []json.RawMessage `json:"items"`
	CampaignName string            `json:"campaignName,omitempty"`
	Filter       string            `json:"filter,omitempty"`
	Format       string            `json:"format,omitempty"`
	Async        bool              `json:"async,omitempty"`
}

// decodeItems converts raw batch entries into classification items.
// A string entry becomes an item with an empty ID. An entry that is
// neither a string nor an object decodes to an empty item, which the
// classifier maps to the empty-input marker at that position; one bad
// entry never rejects the rest of the batch.
func decodeItems(raw []json.RawMessage) []domain.Item {
	items := make([]domain.Item, 0, len(raw))
	for i, entry := range raw {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			items = append(items, domain.Item{Text: text})
			continue
		}

		var item domain.Item
		if err := json.Unmarshal(entry, &item); err != nil {
			slog.Warn("malformed batch entry", "index", i, "error", err)
			items = append(items, domain.Item{})
			continue
		}
		items = append(items, item)
	}
	return items
}

// BatchResponse is the response for POST /classify/batch.
type BatchResponse struct {
	Results []*domain.Classification `json:"results"`
	Count   int                      `json:"count"`
	Metadata struct {
		TraceID       string `json:"traceId"`
		TotalMs       int64  `json:"totalMs"`
		Version       string `json:"version"`
		TenantBatches int64  `json:"tenantBatches,omitempty"`
	} `json:"metadata"`
}

// batchCounterWindow is the rolling window for the per-tenant batch
// volume counter.
const batchCounterWindow = 24 * time.Hour

// ClassifyBatch handles POST /classify/batch requests.
func (h *Handler) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "items is required",
		})
		return
	}

	if req.Format != "" && req.Format != "json" && req.Format != "csv" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "format must be json or csv",
		})
		return
	}

	items := decodeItems(req.Items)

	// Per-tenant batch volume counter over a rolling window.
	var tenantBatches int64
	if h.cache != nil {
		n, err := h.cache.IncrementCounter(ctx, tenantID, "batches", batchCounterWindow)
		if err != nil {
			slog.Warn("batch counter increment failed", "tenant", tenantID, "error", err)
		} else {
			tenantBatches = n
		}
	}

	// Async mode queues the batch for the worker.
	if req.Async {
		if h.bus == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "event bus not available",
			})
			return
		}

		batchID := uuid.New().String()
		payload, _ := json.Marshal(map[string]any{
			"batchId":      batchID,
			"tenantId":     tenantID,
			"traceId":      traceID,
			"campaignName": req.CampaignName,
			"items":        items,
		})
		if err := h.bus.Publish(ctx, tenantID, domain.TopicCopyIngested, payload); err != nil {
			slog.Error("failed to queue batch", "batch_id", batchID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to queue batch",
			})
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"batchId":   batchID,
			"itemCount": len(items),
			"status":    "queued",
		})
		return
	}

	results := h.getClassifier().ClassifyBatch(ctx, items)

	if h.repo != nil {
		for _, cls := range results {
			if err := h.repo.SaveClassification(ctx, tenantID, cls); err != nil {
				slog.Error("failed to save classification", "id", cls.ID, "error", err)
			}
		}
	}

	if req.Format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := export.CSV(w, results); err != nil {
			slog.Error("csv export failed", "error", err)
		}
		return
	}

	resp := BatchResponse{
		Results: results,
		Count:   len(results),
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version
	resp.Metadata.TenantBatches = tenantBatches

	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeCampaign handles POST /campaigns/analyze requests. It classifies
// the batch, optionally narrows the results with a CEL filter expression,
// and returns the distribution report.
func (h *Handler) AnalyzeCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "items is required",
		})
		return
	}

	items := decodeItems(req.Items)

	results := h.getClassifier().ClassifyBatch(ctx, items)

	// Optional CEL filter narrows which results feed the analysis.
	if req.Filter != "" {
		flt, err := filter.New(req.Filter)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid filter expression: " + err.Error(),
			})
			return
		}
		results = flt.Apply(results)
	}

	summary := distribution.Analyze(results)
	report := &domain.CampaignReport{
		ID:              uuid.New().String(),
		CampaignName:    req.CampaignName,
		TotalItems:      summary.TotalItems,
		Distribution:    summary,
		Insights:        distribution.Insights(results, summary),
		Recommendations: distribution.Recommendations(summary),
		CreatedAt:       time.Now().UTC(),
	}

	if h.repo != nil {
		if err := h.repo.SaveCampaignReport(ctx, tenantID, report); err != nil {
			slog.Error("failed to save campaign report", "id", report.ID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(report)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicCampaignReport, payload); err != nil {
			slog.Error("failed to publish campaign report", "id", report.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

// GetClassification retrieves a classification by ID.
func (h *Handler) GetClassification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	id := chi.URLParam(r, "id")

	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "classification id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	cls, err := h.repo.GetClassification(ctx, tenantID, id)
	if err != nil {
		slog.Error("failed to get classification", "id", id, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "classification not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, cls)
}

// ListClassifications returns recent classifications for the tenant.
func (h *Handler) ListClassifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	results, err := h.repo.ListClassifications(ctx, tenantID, limit)
	if err != nil {
		slog.Error("failed to list classifications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list classifications",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// GetCampaignReport retrieves a campaign report by ID.
func (h *Handler) GetCampaignReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	id := chi.URLParam(r, "id")

	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "campaign report id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	report, err := h.repo.GetCampaignReport(ctx, tenantID, id)
	if err != nil {
		slog.Error("failed to get campaign report", "id", id, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "campaign report not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ListTypologies returns all loaded typologies in declaration order.
func (h *Handler) ListTypologies(w http.ResponseWriter, r *http.Request) {
	rules := h.getMatcher().Rules()

	typologies := make([]domain.TypologyRule, 0, rules.Len())
	for _, key := range rules.Order {
		if t, ok := rules.Get(key); ok {
			typologies = append(typologies, t)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"typologies":       typologies,
		"count":            len(typologies),
		"maxLabelsPerItem": rules.Settings.MaxLabelsPerItem,
	})
}

// GetTypology retrieves a typology by key.
func (h *Handler) GetTypology(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "typology key is required",
		})
		return
	}

	t, ok := h.getMatcher().Rules().Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "typology not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// ValidateRules reports structural problems in the loaded rule set.
func (h *Handler) ValidateRules(w http.ResponseWriter, r *http.Request) {
	rules := h.getMatcher().Rules()
	problems := ruleset.Validate(rules)

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    len(problems) == 0,
		"problems": problems,
		"count":    rules.Len(),
	})
}

// ReloadRules re-reads the rule document from disk and swaps the matcher.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	var rules *domain.RuleSet
	if h.rulesPath == "" {
		rules = ruleset.Default()
	} else {
		loaded, err := ruleset.Load(h.rulesPath)
		if err != nil {
			slog.Error("failed to reload rules", "path", h.rulesPath, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to reload rules: " + err.Error(),
			})
			return
		}
		rules = loaded
	}

	if problems := ruleset.Validate(rules); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "rule document has problems",
			"problems": problems,
		})
		return
	}

	m := matcher.New(rules)

	h.mu.Lock()
	h.matcher = m
	h.classifier = classifier.New(m, h.enricher, h.clsCfg)
	h.mu.Unlock()

	slog.Info("rules reloaded", "path", h.rulesPath, "typology_count", rules.Len())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   rules.Len(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func textDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
