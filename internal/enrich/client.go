package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/copyintel/shrike/internal/domain"
)

// Disabled is an Enricher that never enriches. Skipping is signalled by
// (nil, nil), not an error.
type Disabled struct{}

// Enrich implements domain.Enricher.
func (Disabled) Enrich(ctx context.Context, text, industry string) (*domain.Enrichment, error) {
	return nil, nil
}

// Client calls an external enrichment endpoint over HTTP with a
// per-call timeout and a session budget gate.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	tracker  *CostTracker
	httpc    *http.Client
}

// NewClient creates an enrichment client. cfg.TimeoutSecs bounds each
// call independently of the caller's context.
func NewClient(cfg domain.EnrichmentConfig, tracker *CostTracker) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		tracker:  tracker,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Tracker exposes the session cost tracker for status reporting.
func (c *Client) Tracker() *CostTracker {
	return c.tracker
}

type enrichRequest struct {
	Model    string `json:"model"`
	Text     string `json:"text"`
	Industry string `json:"industry,omitempty"`
}

type enrichResponse struct {
	Tone     string `json:"tone"`
	Audience string `json:"audience"`
	Notes    string `json:"notes"`
	Usage    struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"usage"`
}

// estimated completion size used for the pre-call budget check.
const estimatedOutputTokens = 120

// Enrich calls the enrichment endpoint when the budget allows. A call
// that the budget gate skips returns (nil, nil).
func (c *Client) Enrich(ctx context.Context, text, industry string) (*domain.Enrichment, error) {
	inputTokens := estimateTokens(text)
	if !c.tracker.CanAfford(c.model, inputTokens, estimatedOutputTokens) {
		return nil, nil
	}

	body, err := json.Marshal(enrichRequest{
		Model:    c.model,
		Text:     text,
		Industry: industry,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment endpoint returned %d", resp.StatusCode)
	}

	var er enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment response: %w", err)
	}

	cost := c.tracker.Record(c.model, er.Usage.InputTokens, er.Usage.OutputTokens)

	return &domain.Enrichment{
		Model:        c.model,
		Tone:         er.Tone,
		Audience:     er.Audience,
		Notes:        er.Notes,
		InputTokens:  er.Usage.InputTokens,
		OutputTokens: er.Usage.OutputTokens,
		Cost:         cost,
	}, nil
}

// estimateTokens approximates token count at four characters per token.
func estimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
