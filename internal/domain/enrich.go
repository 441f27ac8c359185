package domain

import "context"

// Enrichment is the optional LLM-provided enhancement of a classification.
type Enrichment struct {
	Model        string  `json:"model"`
	Tone         string  `json:"tone,omitempty"`
	Audience     string  `json:"audience,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// Enricher produces an optional enrichment for a piece of copy.
//
// Implementations are budget-gated and independently timed. Returning
// (nil, nil) means the call was skipped (budget exhausted or the
// feature is disabled) and is not an error. Classification results
// must be fully valid whether or not the enricher is invoked.
type Enricher interface {
	Enrich(ctx context.Context, text string, industry string) (*Enrichment, error)
}
