// Package classifier orchestrates per-item classification: input
// sentinel handling, text cleanup, pattern matching, score
// normalization, and order-preserving parallel batches.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/copyintel/shrike/internal/domain"
	"github.com/copyintel/shrike/internal/matcher"
	"github.com/copyintel/shrike/internal/textproc"
)

// Config controls result shaping and batch parallelism.
type Config struct {
	IncludeDetails  bool
	IncludeFeatures bool
	NormalizeScores bool

	// Workers bounds batch parallelism. Zero or negative falls back to
	// a small default.
	Workers int
}

const defaultWorkers = 8

// Classifier wraps a matcher with per-item policy. Classification is a
// pure function of the input text and the immutable rule set, so one
// Classifier serves concurrent callers without locking.
type Classifier struct {
	matcher  *matcher.Matcher
	enricher domain.Enricher
	cfg      Config
}

// New creates a classifier. enricher may be nil to disable enrichment.
func New(m *matcher.Matcher, enricher domain.Enricher, cfg Config) *Classifier {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Classifier{
		matcher:  m,
		enricher: enricher,
		cfg:      cfg,
	}
}

// Matcher returns the underlying matcher.
func (c *Classifier) Matcher() *matcher.Matcher {
	return c.matcher
}

// ClassifySingle classifies one piece of copy without an industry hint.
func (c *Classifier) ClassifySingle(ctx context.Context, text, id string) *domain.Classification {
	return c.ClassifyItem(ctx, domain.Item{ID: id, Text: text})
}

// ClassifyItem classifies one item. Empty or whitespace-only text
// short-circuits to the sentinel result; callers always receive a
// well-formed Classification, never an error, for input problems. The
// item's industry hint, when present, is forwarded to the enricher.
func (c *Classifier) ClassifyItem(ctx context.Context, item domain.Item) *domain.Classification {
	if strings.TrimSpace(item.Text) == "" {
		return emptyResult(item.ID)
	}

	clean := textproc.Clean(item.Text)
	res := c.matcher.Classify(clean)

	out := &domain.Classification{
		ID:           item.ID,
		OriginalText: item.Text,
		Labels:       res.Labels,
		LabelCount:   len(res.Labels),
		Scores:       res.Scores,
		ClassifiedAt: time.Now().UTC(),
	}

	if c.cfg.IncludeDetails {
		out.CleanText = clean
		out.Typologies = res.Typologies
		out.MatchedPatterns = res.MatchedPatterns
	}

	if c.cfg.IncludeFeatures {
		out.Features = textproc.Features(clean)
		out.Buzzwords = textproc.Buzzwords(clean, 3)
		out.CTAPhrases = textproc.CTAPhrases(clean)
		out.Sentiment = textproc.Sentiment(clean)
	}

	if c.cfg.NormalizeScores {
		out.NormalizedScores = normalize(out.Scores)
	}

	if c.enricher != nil {
		enr, err := c.enricher.Enrich(ctx, clean, item.Industry)
		switch {
		case err != nil:
			// Enrichment is fire-and-forget: a failed call never
			// invalidates the classification.
			slog.Warn("enrichment failed", "id", item.ID, "error", err)
		case enr != nil:
			out.Enrichment = enr
		}
	}

	return out
}

// ClassifyBatch classifies items independently and in parallel,
// preserving input order: one result per item, at the item's index.
// Items without an identifier get a positional one.
func (c *Classifier) ClassifyBatch(ctx context.Context, items []domain.Item) []*domain.Classification {
	results := make([]*domain.Classification, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, item := range items {
		g.Go(func() error {
			if item.ID == "" {
				item.ID = fmt.Sprintf("item_%d", i)
			}
			results[i] = c.ClassifyItem(gctx, item)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return results
}

// normalize rescales a score vector relative to its own maximum. When
// the maximum is zero there is nothing meaningful to scale against, so
// no normalized vector is produced at all.
func normalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return nil
	}

	var max float64
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return nil
	}

	norm := make(map[string]float64, len(scores))
	for k, v := range scores {
		norm[k] = v / max
	}
	return norm
}

func emptyResult(id string) *domain.Classification {
	return &domain.Classification{
		ID:           id,
		OriginalText: "",
		Labels:       []string{},
		LabelCount:   0,
		Scores:       map[string]float64{},
		Error:        domain.ErrEmptyInput,
		ClassifiedAt: time.Now().UTC(),
	}
}
