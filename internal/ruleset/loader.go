// Package ruleset loads, validates, and ships typology rule definitions.
//
// A rule document is YAML with two top-level keys: "typologies" (mapping
// of typology key to name/description/threshold/patterns) and "settings".
// Document order of the typology keys is preserved as a first-class
// sequence because label capping and tie-breaks depend on it.
package ruleset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/copyintel/shrike/internal/domain"
)

const (
	// DefaultThreshold applies when a typology omits its threshold.
	DefaultThreshold = 0.5

	// DefaultWeight applies when a pattern omits its weight.
	DefaultWeight = 1.0
)

type patternDoc struct {
	Regex  string   `yaml:"regex"`
	Weight *float64 `yaml:"weight"`
}

type typologyDoc struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Threshold   *float64     `yaml:"threshold"`
	Patterns    []patternDoc `yaml:"patterns"`
}

type settingsDoc struct {
	MaxLabelsPerItem int `yaml:"max_labels_per_item"`
}

// Load reads and parses a rule document from path. A missing or
// syntactically invalid document is a hard failure; this is the only
// legitimate fatal error in the classification core.
func Load(path string) (*domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules from %s: %w", path, err)
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a rule document. It walks the YAML node tree instead of
// unmarshalling straight into a map so that typology declaration order
// survives the load.
func Parse(data []byte) (*domain.RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid rule document: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("invalid rule document: empty document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid rule document: top level must be a mapping")
	}

	rs := &domain.RuleSet{
		Typologies: make(map[string]domain.TypologyRule),
	}

	var typologiesNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "typologies":
			typologiesNode = value
		case "settings":
			var s settingsDoc
			if err := value.Decode(&s); err != nil {
				return nil, fmt.Errorf("invalid settings: %w", err)
			}
			if s.MaxLabelsPerItem < 0 {
				return nil, fmt.Errorf("invalid settings: max_labels_per_item must be positive, got %d", s.MaxLabelsPerItem)
			}
			rs.Settings = domain.Settings{MaxLabelsPerItem: s.MaxLabelsPerItem}
		}
	}

	if typologiesNode == nil {
		return nil, fmt.Errorf("invalid rule document: missing typologies mapping")
	}
	if typologiesNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid rule document: typologies must be a mapping")
	}

	for i := 0; i+1 < len(typologiesNode.Content); i += 2 {
		keyNode, value := typologiesNode.Content[i], typologiesNode.Content[i+1]
		key := keyNode.Value

		var t typologyDoc
		if err := value.Decode(&t); err != nil {
			return nil, fmt.Errorf("invalid typology %q: %w", key, err)
		}

		rule := domain.TypologyRule{
			Key:         key,
			Name:        t.Name,
			Description: t.Description,
			Threshold:   DefaultThreshold,
			Patterns:    make([]domain.PatternRule, 0, len(t.Patterns)),
		}
		if rule.Name == "" {
			rule.Name = key
		}
		if t.Threshold != nil {
			rule.Threshold = *t.Threshold
		}

		for _, p := range t.Patterns {
			weight := DefaultWeight
			if p.Weight != nil {
				weight = *p.Weight
			}
			rule.Patterns = append(rule.Patterns, domain.PatternRule{
				Regex:  p.Regex,
				Weight: weight,
			})
		}

		if _, dup := rs.Typologies[key]; dup {
			return nil, fmt.Errorf("invalid rule document: duplicate typology key %q", key)
		}
		rs.Typologies[key] = rule
		rs.Order = append(rs.Order, key)
	}

	if len(rs.Order) == 0 {
		return nil, fmt.Errorf("invalid rule document: no typologies defined")
	}

	return rs, nil
}
