// Package filter compiles CEL predicates over classification results.
// Campaign analysis and export use filters to select which results feed
// a report, e.g. `label_count > 0 && "Urgency/Scarcity" in labels`.
package filter

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/copyintel/shrike/internal/domain"
)

// Filter is a compiled CEL predicate over one classification result.
type Filter struct {
	expr string
	prog cel.Program
}

// New compiles a filter expression. The expression must evaluate to a
// boolean; anything else is a compile-time error, never a
// per-result surprise.
func New(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("labels", cel.ListType(cel.StringType)),
		cel.Variable("label_count", cel.IntType),
		cel.Variable("scores", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("error", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter %q: expression must return bool, got %s", expr, ast.OutputType())
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter program: %w", err)
	}

	return &Filter{expr: expr, prog: prog}, nil
}

// Match evaluates the predicate against one result.
func (f *Filter) Match(c *domain.Classification) (bool, error) {
	labels := make([]string, len(c.Labels))
	copy(labels, c.Labels)

	scores := make(map[string]float64, len(c.Scores))
	for k, v := range c.Scores {
		scores[k] = v
	}

	out, _, err := f.prog.Eval(map[string]any{
		"id":          c.ID,
		"labels":      labels,
		"label_count": int64(c.LabelCount),
		"scores":      scores,
		"error":       c.Error,
	})
	if err != nil {
		return false, fmt.Errorf("filter evaluation failed: %w", err)
	}

	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("filter returned non-boolean value")
	}
	return bool(b), nil
}

// Apply returns the results matching the predicate, preserving order.
// A result whose evaluation fails is excluded with a warning; one bad
// result must not abort the batch.
func (f *Filter) Apply(results []*domain.Classification) []*domain.Classification {
	matched := make([]*domain.Classification, 0, len(results))
	for _, r := range results {
		ok, err := f.Match(r)
		if err != nil {
			slog.Warn("result excluded by failing filter evaluation",
				"id", r.ID,
				"filter", f.expr,
				"error", err,
			)
			continue
		}
		if ok {
			matched = append(matched, r)
		}
	}
	return matched
}
