package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/copyintel/shrike/internal/cache"
	"github.com/copyintel/shrike/internal/classifier"
	"github.com/copyintel/shrike/internal/domain"
	"github.com/copyintel/shrike/internal/matcher"
	"github.com/copyintel/shrike/internal/repository"
)

func testRules() *domain.RuleSet {
	return &domain.RuleSet{
		Typologies: map[string]domain.TypologyRule{
			"urgency": {
				Key:       "urgency",
				Name:      "Urgency/Scarcity",
				Threshold: 0.8,
				Patterns: []domain.PatternRule{
					{Regex: `\b(last chance|hurry|only \d+ left)\b`, Weight: 1.0},
				},
			},
			"social_proof": {
				Key:       "social_proof",
				Name:      "Social Proof",
				Threshold: 0.8,
				Patterns: []domain.PatternRule{
					{Regex: `\b(bestseller|customers love)\b`, Weight: 1.0},
				},
			},
		},
		Order:    []string{"urgency", "social_proof"},
		Settings: domain.Settings{MaxLabelsPerItem: 3},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	m := matcher.New(testRules())
	cfg := domain.ServerConfig{Host: "localhost", Port: 0}

	return NewServer(cfg, repo, nil, nil, m, nil, classifier.Config{IncludeDetails: true}, "", "test")
}

func testServerWithCache(t *testing.T) *Server {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	c, err := cache.New(domain.CacheConfig{Type: "memory", LocalMaxSize: 100})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	m := matcher.New(testRules())
	cfg := domain.ServerConfig{Host: "localhost", Port: 0}

	return NewServer(cfg, repo, c, nil, m, nil, classifier.Config{IncludeDetails: true}, "", "test")
}

func doRequest(t *testing.T, srv *Server, method, path string, body any, tenant string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if tenant != "" {
		req.Header.Set(TenantIDHeader, tenant)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestClassifyEndpoint(t *testing.T) {
	srv := testServer(t)

	t.Run("Success", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify", map[string]string{
			"id":   "copy-1",
			"text": "Last chance! Hurry now!",
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var cls domain.Classification
		if err := json.NewDecoder(rec.Body).Decode(&cls); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if cls.ID != "copy-1" {
			t.Errorf("expected id copy-1, got %s", cls.ID)
		}
		if len(cls.Labels) != 1 || cls.Labels[0] != "Urgency/Scarcity" {
			t.Errorf("unexpected labels: %v", cls.Labels)
		}
		if cls.Scores["urgency"] != 2.0 {
			t.Errorf("expected urgency score 2.0, got %f", cls.Scores["urgency"])
		}
	})

	t.Run("MissingTenant", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify", map[string]string{
			"text": "Hurry!",
		}, "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 without tenant header, got %d", rec.Code)
		}
	})

	t.Run("InvalidBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString("{not json"))
		req.Header.Set(TenantIDHeader, "tenant-a")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
		}
	})

	t.Run("EmptyTextReturnsSentinel", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify", map[string]string{
			"text": "   ",
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var cls domain.Classification
		json.NewDecoder(rec.Body).Decode(&cls)
		if cls.Error != domain.ErrEmptyInput {
			t.Errorf("expected empty input marker, got %q", cls.Error)
		}
	})
}

func TestClassifyBatchEndpoint(t *testing.T) {
	srv := testServer(t)

	t.Run("MixedStringAndObjectItems", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items": []any{
				"Last chance to save!",
				map[string]string{"id": "named", "text": "Customers love this bestseller."},
			},
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp BatchResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 2 {
			t.Fatalf("expected 2 results, got %d", resp.Count)
		}
		if resp.Results[0].ID != "item_0" {
			t.Errorf("expected positional id item_0, got %s", resp.Results[0].ID)
		}
		if resp.Results[1].ID != "named" {
			t.Errorf("expected caller id preserved, got %s", resp.Results[1].ID)
		}
		if resp.Metadata.Version != "test" {
			t.Errorf("expected version test, got %s", resp.Metadata.Version)
		}
	})

	t.Run("MalformedEntryGetsSentinel", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items": []any{
				"Last chance! Hurry now!",
				42,
				map[string]string{"text": "Nice product."},
			},
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp BatchResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 3 {
			t.Fatalf("expected 3 results, got %d", resp.Count)
		}
		if len(resp.Results[0].Labels) != 1 {
			t.Errorf("expected valid entry classified, got %v", resp.Results[0].Labels)
		}
		if resp.Results[1].ID != "item_1" {
			t.Errorf("expected positional id for malformed entry, got %s", resp.Results[1].ID)
		}
		if resp.Results[1].Error != domain.ErrEmptyInput {
			t.Errorf("expected empty-input marker for malformed entry, got %q", resp.Results[1].Error)
		}
		if resp.Results[2].Error != "" {
			t.Errorf("entry after malformed one must still classify, got %q", resp.Results[2].Error)
		}
	})

	t.Run("CSVFormat", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items":  []any{"Last chance to save!"},
			"format": "csv",
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("expected text/csv, got %s", ct)
		}

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header plus one row, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "id,original_text,labels") {
			t.Errorf("unexpected csv header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "Urgency/Scarcity") {
			t.Errorf("expected label in csv row, got %s", lines[1])
		}
	})

	t.Run("UnsupportedFormatRejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items":  []any{"Hurry!"},
			"format": "xml",
		}, "tenant-a")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for unsupported format, got %d", rec.Code)
		}
	})

	t.Run("EmptyItemsRejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items": []any{},
		}, "tenant-a")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for empty items, got %d", rec.Code)
		}
	})

	t.Run("AsyncWithoutBusUnavailable", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items": []any{"Hurry!"},
			"async": true,
		}, "tenant-a")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 without bus, got %d", rec.Code)
		}
	})
}

func TestBatchVolumeCounter(t *testing.T) {
	srv := testServerWithCache(t)

	postBatch := func(t *testing.T, tenant string) BatchResponse {
		t.Helper()
		rec := doRequest(t, srv, http.MethodPost, "/classify/batch", map[string]any{
			"items": []any{"Hurry!"},
		}, tenant)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp BatchResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return resp
	}

	t.Run("CountsPerTenant", func(t *testing.T) {
		if got := postBatch(t, "tenant-a").Metadata.TenantBatches; got != 1 {
			t.Errorf("expected first batch counted as 1, got %d", got)
		}
		if got := postBatch(t, "tenant-a").Metadata.TenantBatches; got != 2 {
			t.Errorf("expected second batch counted as 2, got %d", got)
		}
	})

	t.Run("TenantIsolated", func(t *testing.T) {
		if got := postBatch(t, "tenant-b").Metadata.TenantBatches; got != 1 {
			t.Errorf("expected separate counter per tenant, got %d", got)
		}
	})
}

func TestAnalyzeCampaignEndpoint(t *testing.T) {
	srv := testServer(t)

	t.Run("DistributionReport", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/campaigns/analyze", map[string]any{
			"campaignName": "spring-sale",
			"items": []any{
				"Last chance! Customers love this bestseller.",
				"Hurry, sale ends soon.",
				"Plain product description.",
			},
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var report domain.CampaignReport
		if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if report.CampaignName != "spring-sale" {
			t.Errorf("unexpected campaign name: %s", report.CampaignName)
		}
		if report.TotalItems != 3 {
			t.Errorf("expected 3 items, got %d", report.TotalItems)
		}
		if report.Distribution.Distribution["Urgency/Scarcity"].Count != 2 {
			t.Errorf("expected urgency count 2, got %+v", report.Distribution.Distribution)
		}

		t.Run("PersistedAndRetrievable", func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, "/campaigns/"+report.ID, nil, "tenant-a")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var got domain.CampaignReport
			json.NewDecoder(rec.Body).Decode(&got)
			if got.ID != report.ID {
				t.Errorf("expected report %s, got %s", report.ID, got.ID)
			}
		})
	})

	t.Run("FilterNarrowsResults", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/campaigns/analyze", map[string]any{
			"items": []any{
				"Last chance to save!",
				"Plain product description.",
			},
			"filter": `label_count > 0`,
		}, "tenant-a")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var report domain.CampaignReport
		json.NewDecoder(rec.Body).Decode(&report)
		if report.TotalItems != 1 {
			t.Errorf("expected filter to narrow to 1 item, got %d", report.TotalItems)
		}
	})

	t.Run("InvalidFilterRejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/campaigns/analyze", map[string]any{
			"items":  []any{"Hurry!"},
			"filter": `label_count +`,
		}, "tenant-a")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for invalid filter, got %d", rec.Code)
		}
	})
}

func TestClassificationRetrieval(t *testing.T) {
	srv := testServer(t)

	doRequest(t, srv, http.MethodPost, "/classify", map[string]string{
		"id":   "copy-1",
		"text": "Last chance!",
	}, "tenant-a")

	t.Run("GetByID", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/classifications/copy-1", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var cls domain.Classification
		json.NewDecoder(rec.Body).Decode(&cls)
		if cls.ID != "copy-1" {
			t.Errorf("expected copy-1, got %s", cls.ID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/classifications/missing", nil, "tenant-a")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("TenantIsolated", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/classifications/copy-1", nil, "tenant-b")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for other tenant, got %d", rec.Code)
		}
	})

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/classifications?limit=10", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 classification, got %d", resp.Count)
		}
	})

	t.Run("ListBadLimit", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/classifications?limit=zero", nil, "tenant-a")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad limit, got %d", rec.Code)
		}
	})
}

func TestTypologyEndpoints(t *testing.T) {
	srv := testServer(t)

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/typologies", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Typologies       []domain.TypologyRule `json:"typologies"`
			Count            int                   `json:"count"`
			MaxLabelsPerItem int                   `json:"maxLabelsPerItem"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Count != 2 {
			t.Fatalf("expected 2 typologies, got %d", resp.Count)
		}
		if resp.Typologies[0].Key != "urgency" {
			t.Errorf("expected declaration order, got %s first", resp.Typologies[0].Key)
		}
		if resp.MaxLabelsPerItem != 3 {
			t.Errorf("expected cap 3, got %d", resp.MaxLabelsPerItem)
		}
	})

	t.Run("GetByKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/typologies/urgency", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var rule domain.TypologyRule
		json.NewDecoder(rec.Body).Decode(&rule)
		if rule.Name != "Urgency/Scarcity" {
			t.Errorf("unexpected rule: %+v", rule)
		}
	})

	t.Run("UnknownKey", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/typologies/nope", nil, "tenant-a")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestRuleEndpoints(t *testing.T) {
	srv := testServer(t)

	t.Run("Validate", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/rules/validate", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp struct {
			Valid    bool     `json:"valid"`
			Problems []string `json:"problems"`
			Count    int      `json:"count"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if !resp.Valid {
			t.Errorf("expected valid rule set, problems: %v", resp.Problems)
		}
		if resp.Count != 2 {
			t.Errorf("expected 2 typologies, got %d", resp.Count)
		}
	})

	t.Run("ReloadFallsBackToBuiltin", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/rules/reload", nil, "tenant-a")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		// With no rules path configured, reload swaps in the builtin set.
		rec = doRequest(t, srv, http.MethodGet, "/typologies", nil, "tenant-a")
		var resp struct {
			Count int `json:"count"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Count <= 2 {
			t.Errorf("expected builtin rule set after reload, got %d typologies", resp.Count)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t)

	t.Run("Health", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/health", nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["status"] != "healthy" {
			t.Errorf("expected healthy, got %s", resp["status"])
		}
		if resp["version"] != "test" {
			t.Errorf("expected version test, got %s", resp["version"])
		}
	})

	t.Run("Ready", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/ready", nil, "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
