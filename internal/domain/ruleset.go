// Package domain defines the core types and interfaces for Shrike.
package domain

// PatternRule is a single weighted regular expression within a typology.
// Patterns are evaluated case-insensitively over the whole text; every
// match instance contributes Weight to the typology score.
type PatternRule struct {
	Regex  string  `json:"regex"`
	Weight float64 `json:"weight"`
}

// TypologyRule defines one persuasion typology: a named strategy category
// detected through an ordered list of weighted patterns.
// Identity is Key; Name is the human-facing label surfaced to callers.
type TypologyRule struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Threshold   float64       `json:"threshold"`
	Patterns    []PatternRule `json:"patterns"`
}

// Settings holds the global rule set settings.
type Settings struct {
	// MaxLabelsPerItem caps how many typology labels a single item may
	// carry. Zero means unlimited.
	MaxLabelsPerItem int `json:"maxLabelsPerItem"`
}

// RuleSet is the full declarative rule definition: typologies keyed by
// their unique key, plus the declaration order of those keys and global
// settings. A RuleSet is loaded once, never mutated afterward, and safe
// to share across concurrent classification calls.
//
// Order is first-class rather than incidental: label-cap truncation and
// tie-breaks depend on it, so it must survive the load exactly as the
// document declares it.
type RuleSet struct {
	Typologies map[string]TypologyRule `json:"typologies"`
	Order      []string                `json:"order"`
	Settings   Settings                `json:"settings"`
}

// Get returns the typology for key. The boolean distinguishes an unknown
// key from a typology that merely scored zero.
func (rs *RuleSet) Get(key string) (TypologyRule, bool) {
	t, ok := rs.Typologies[key]
	return t, ok
}

// Len returns the number of typologies in the rule set.
func (rs *RuleSet) Len() int {
	return len(rs.Order)
}

// Keys returns the typology keys in declaration order.
func (rs *RuleSet) Keys() []string {
	keys := make([]string, len(rs.Order))
	copy(keys, rs.Order)
	return keys
}
