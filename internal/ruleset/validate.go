package ruleset

import (
	"fmt"
	"regexp"

	"github.com/copyintel/shrike/internal/domain"
)

// Validate inspects a loaded rule set and returns a list of
// human-readable problems. It never fails: configuration errors are
// surfaced as data for setup-diagnostics tooling, not raised
// mid-classification.
func Validate(rs *domain.RuleSet) []string {
	var problems []string

	for _, key := range rs.Order {
		t := rs.Typologies[key]

		if t.Threshold < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative threshold: %g", key, t.Threshold))
		}

		for i, p := range t.Patterns {
			if p.Regex == "" {
				problems = append(problems, fmt.Sprintf("%s: pattern %d has empty regex", key, i))
				continue
			}
			if _, err := regexp.Compile("(?im)" + p.Regex); err != nil {
				problems = append(problems, fmt.Sprintf("%s: pattern %d invalid regex %q: %v", key, i, p.Regex, err))
			}
			if p.Weight < 0 {
				problems = append(problems, fmt.Sprintf("%s: pattern %d invalid weight: %g", key, i, p.Weight))
			}
		}
	}

	return problems
}
