// Package matcher implements the weighted regular-expression scoring core.
//
// A Matcher compiles an immutable rule set once and evaluates texts
// against it. All state is read-only after construction, so a single
// Matcher is safe to share across concurrent classification calls
// without locking.
package matcher

import (
	"log/slog"
	"regexp"
	"sort"

	"github.com/copyintel/shrike/internal/domain"
)

type compiledPattern struct {
	re     *regexp.Regexp
	weight float64
}

type compiledTypology struct {
	rule domain.TypologyRule

	// patterns holds only the patterns that compiled. A pattern whose
	// regex fails to compile is skipped with a warning at construction
	// and contributes zero: one bad rule must not break classification.
	patterns []compiledPattern
}

// Matcher evaluates texts against a compiled rule set.
type Matcher struct {
	rules      *domain.RuleSet
	typologies map[string]*compiledTypology
}

// Result is the outcome of classifying one text against every typology
// in the rule set.
type Result struct {
	// Labels holds the display names of assigned typologies, ordered by
	// descending score after capping; ties keep declaration order.
	Labels []string

	// Scores has an entry for every typology key, matched or not.
	Scores map[string]float64

	// MatchedPatterns has an entry for every typology key with the
	// matched substrings accumulated ordered-by-pattern, duplicates kept.
	MatchedPatterns map[string][]string

	// Typologies holds detail for assigned typologies only.
	Typologies map[string]domain.TypologyDetail
}

// New compiles the rule set into a matcher. Each pattern is compiled
// case-insensitive and multi-line; patterns that fail to compile are
// logged and dropped.
func New(rs *domain.RuleSet) *Matcher {
	m := &Matcher{
		rules:      rs,
		typologies: make(map[string]*compiledTypology, rs.Len()),
	}

	for _, key := range rs.Order {
		rule := rs.Typologies[key]
		ct := &compiledTypology{
			rule:     rule,
			patterns: make([]compiledPattern, 0, len(rule.Patterns)),
		}
		for i, p := range rule.Patterns {
			re, err := regexp.Compile("(?im)" + p.Regex)
			if err != nil {
				slog.Warn("invalid regex pattern, skipping",
					"typology", key,
					"pattern_index", i,
					"regex", p.Regex,
					"error", err,
				)
				continue
			}
			ct.patterns = append(ct.patterns, compiledPattern{re: re, weight: p.Weight})
		}
		m.typologies[key] = ct
	}

	return m
}

// Rules returns the underlying rule set. Callers must treat it as
// read-only.
func (m *Matcher) Rules() *domain.RuleSet {
	return m.rules
}

// MatchOne evaluates text against a single typology's patterns. The
// boolean reports whether the key is a recognized typology; an unknown
// key yields a zero result and false, so callers can tell "not found"
// apart from "found with score 0".
//
// Each match instance contributes the pattern's weight: repeated matches
// compound linearly. Matched substrings accumulate in pattern order.
func (m *Matcher) MatchOne(text, key string) (domain.MatchResult, bool) {
	ct, ok := m.typologies[key]
	if !ok {
		return domain.MatchResult{MatchedSubstrings: []string{}}, false
	}

	var score float64
	matched := []string{}

	for _, p := range ct.patterns {
		found := p.re.FindAllString(text, -1)
		if len(found) == 0 {
			continue
		}
		score += float64(len(found)) * p.weight
		matched = append(matched, found...)
	}

	return domain.MatchResult{
		Score:             score,
		MatchedSubstrings: matched,
		PassedThreshold:   score >= ct.rule.Threshold,
	}, true
}

type candidate struct {
	key   string
	score float64
}

// Classify evaluates text against every typology in the rule set.
//
// A typology is assigned iff its score meets its threshold (inclusive).
// When the rule set caps labels per item, only the top-N by score
// survive; ties keep the rule set's declaration order, so results are
// deterministic regardless of map iteration order.
func (m *Matcher) Classify(text string) *Result {
	res := &Result{
		Scores:          make(map[string]float64, m.rules.Len()),
		MatchedPatterns: make(map[string][]string, m.rules.Len()),
		Typologies:      make(map[string]domain.TypologyDetail),
	}

	var candidates []candidate

	for _, key := range m.rules.Order {
		mr, _ := m.MatchOne(text, key)
		res.Scores[key] = mr.Score
		res.MatchedPatterns[key] = mr.MatchedSubstrings

		rule := m.rules.Typologies[key]
		if mr.Score >= rule.Threshold {
			candidates = append(candidates, candidate{key: key, score: mr.Score})
			res.Typologies[key] = domain.TypologyDetail{
				Name:            rule.Name,
				Score:           mr.Score,
				Threshold:       rule.Threshold,
				PatternsMatched: mr.MatchedSubstrings,
				Description:     rule.Description,
			}
		}
	}

	// Stable sort preserves declaration order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit := m.rules.Settings.MaxLabelsPerItem; limit > 0 && len(candidates) > limit {
		for _, dropped := range candidates[limit:] {
			delete(res.Typologies, dropped.key)
		}
		candidates = candidates[:limit]
	}

	res.Labels = make([]string, 0, len(candidates))
	for _, c := range candidates {
		res.Labels = append(res.Labels, m.rules.Typologies[c.key].Name)
	}

	return res
}
