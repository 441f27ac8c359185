package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/copyintel/shrike/internal/domain"
)

func TestPrice(t *testing.T) {
	t.Run("KnownModel", func(t *testing.T) {
		p, ok := Price("gpt-4o-mini")
		if !ok {
			t.Fatal("expected known model")
		}
		if p.Input <= 0 || p.Output <= 0 {
			t.Errorf("expected positive pricing, got %+v", p)
		}
	})

	t.Run("UnknownModelIsExplicitMiss", func(t *testing.T) {
		p, ok := Price("future-model-9000")
		if ok {
			t.Error("expected ok=false for unknown model")
		}
		if p.Input != 0 || p.Output != 0 {
			t.Errorf("expected zero pricing for miss, got %+v", p)
		}
	})
}

func TestCostTracker(t *testing.T) {
	t.Run("AffordableWithinBudget", func(t *testing.T) {
		tracker := NewCostTracker(1.00)
		if !tracker.CanAfford("gpt-4o-mini", 1000, 1000) {
			t.Error("expected small call to be affordable")
		}
	})

	t.Run("UnknownModelNeverAffordable", func(t *testing.T) {
		tracker := NewCostTracker(1000.00)
		if tracker.CanAfford("future-model-9000", 1, 1) {
			t.Error("unknown model pricing must not be affordable")
		}
	})

	t.Run("RecordAccumulatesSpend", func(t *testing.T) {
		tracker := NewCostTracker(1.00)

		cost := tracker.Record("gpt-4o", 1000, 1000)
		if cost <= 0 {
			t.Fatalf("expected positive cost, got %v", cost)
		}

		status := tracker.Status()
		if status.Calls != 1 {
			t.Errorf("expected 1 call, got %d", status.Calls)
		}
		if status.Spent != cost {
			t.Errorf("expected spent %v, got %v", cost, status.Spent)
		}
		if status.Remaining != status.BudgetLimit-cost {
			t.Errorf("unexpected remaining: %+v", status)
		}
	})

	t.Run("BudgetGateBlocksWhenExhausted", func(t *testing.T) {
		tracker := NewCostTracker(0.01)

		// gpt-4o at 1M+1M tokens costs far more than a cent.
		if tracker.CanAfford("gpt-4o", 1_000_000, 1_000_000) {
			t.Error("expected oversized call to be rejected")
		}

		tracker.Record("gpt-4o", 1000, 1000)
		if tracker.CanAfford("gpt-4o", 1000, 1000) {
			t.Error("expected budget to be exhausted")
		}

		status := tracker.Status()
		if status.Remaining != 0 {
			t.Errorf("remaining clamps at zero, got %v", status.Remaining)
		}
	})
}

func TestDisabled(t *testing.T) {
	enr, err := Disabled{}.Enrich(context.Background(), "some copy", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enr != nil {
		t.Errorf("expected nil enrichment, got %+v", enr)
	}
}

func TestClientEnrich(t *testing.T) {
	t.Run("SuccessfulCall", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
			}

			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}

			json.NewEncoder(w).Encode(map[string]any{
				"tone":     "urgent",
				"audience": "bargain hunters",
				"notes":    "heavy discount framing",
				"usage":    map[string]int{"inputTokens": 50, "outputTokens": 80},
			})
		}))
		defer srv.Close()

		tracker := NewCostTracker(1.00)
		client := NewClient(domain.EnrichmentConfig{
			Endpoint: srv.URL,
			APIKey:   "test-key",
			Model:    "gpt-4o-mini",
		}, tracker)

		enr, err := client.Enrich(context.Background(), "50% off today only!", "retail")
		if err != nil {
			t.Fatalf("Enrich failed: %v", err)
		}
		if enr == nil {
			t.Fatal("expected enrichment")
		}
		if enr.Tone != "urgent" || enr.Model != "gpt-4o-mini" {
			t.Errorf("unexpected enrichment: %+v", enr)
		}
		if enr.Cost <= 0 {
			t.Errorf("expected positive cost, got %v", enr.Cost)
		}
		if tracker.Status().Calls != 1 {
			t.Errorf("expected 1 recorded call, got %d", tracker.Status().Calls)
		}
	})

	t.Run("BudgetGateSkipsSilently", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		client := NewClient(domain.EnrichmentConfig{
			Endpoint: srv.URL,
			Model:    "gpt-4o-mini",
		}, NewCostTracker(0))

		enr, err := client.Enrich(context.Background(), "some copy", "")
		if err != nil {
			t.Fatalf("skip must not be an error, got %v", err)
		}
		if enr != nil {
			t.Errorf("expected nil enrichment on skip, got %+v", enr)
		}
		if called {
			t.Error("endpoint must not be called when budget gate skips")
		}
	})

	t.Run("UpstreamErrorPropagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(domain.EnrichmentConfig{
			Endpoint: srv.URL,
			Model:    "gpt-4o-mini",
		}, NewCostTracker(1.00))

		_, err := client.Enrich(context.Background(), "some copy", "")
		if err == nil {
			t.Error("expected error for non-200 response")
		}
	})
}
