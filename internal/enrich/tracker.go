// Package enrich implements the optional LLM enhancement collaborator:
// a budget-gated, independently-timed external call that returns either
// an enrichment or nothing. The classification core never depends on it.
package enrich

import (
	"sync"
	"time"
)

// ModelPricing is USD per 1K tokens for one model.
type ModelPricing struct {
	Input  float64
	Output float64
}

var pricing = map[string]ModelPricing{
	"gpt-4o-mini":   {Input: 0.000150, Output: 0.000600},
	"gpt-4o":        {Input: 0.0050, Output: 0.0150},
	"gpt-3.5-turbo": {Input: 0.0005, Output: 0.0015},
}

// Price returns the pricing for a model. Unknown models are an explicit
// miss; callers must not mistake "not found" for "free".
func Price(model string) (ModelPricing, bool) {
	p, ok := pricing[model]
	return p, ok
}

// BudgetStatus is a point-in-time snapshot of a tracker.
type BudgetStatus struct {
	BudgetLimit float64 `json:"budgetLimit"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	Calls       int     `json:"calls"`
}

// CostTracker accounts for enrichment spend against a budget limit. It
// is session-scoped by construction: each concurrent session owns its
// tracker, so sessions never interfere through ambient global state.
type CostTracker struct {
	mu        sync.Mutex
	budget    float64
	spent     float64
	calls     int
	startedAt time.Time
}

// NewCostTracker creates a tracker with the given budget limit in USD.
func NewCostTracker(budget float64) *CostTracker {
	return &CostTracker{
		budget:    budget,
		startedAt: time.Now().UTC(),
	}
}

// Estimate computes the cost of a prospective call. The boolean is
// false when the model's pricing is unknown.
func (t *CostTracker) Estimate(model string, inputTokens, outputTokens int) (float64, bool) {
	p, ok := Price(model)
	if !ok {
		return 0, false
	}
	cost := float64(inputTokens)/1000*p.Input + float64(outputTokens)/1000*p.Output
	return cost, true
}

// CanAfford reports whether a prospective call fits the remaining
// budget. Unknown models are never affordable.
func (t *CostTracker) CanAfford(model string, inputTokens, outputTokens int) bool {
	cost, ok := t.Estimate(model, inputTokens, outputTokens)
	if !ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spent+cost <= t.budget
}

// Record accounts for a completed call and returns its cost.
func (t *CostTracker) Record(model string, inputTokens, outputTokens int) float64 {
	cost, ok := t.Estimate(model, inputTokens, outputTokens)
	if !ok {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.spent += cost
	t.calls++
	return cost
}

// Status returns a snapshot of the tracker.
func (t *CostTracker) Status() BudgetStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.budget - t.spent
	if remaining < 0 {
		remaining = 0
	}
	return BudgetStatus{
		BudgetLimit: t.budget,
		Spent:       t.spent,
		Remaining:   remaining,
		Calls:       t.calls,
	}
}
