package distribution

import (
	"fmt"
	"math"

	"github.com/copyintel/shrike/internal/domain"
)

// Insights derives campaign-level commentary from a distribution summary
// and the detailed results behind it.
func Insights(results []*domain.Classification, summary *domain.DistributionSummary) *domain.CampaignInsights {
	ins := &domain.CampaignInsights{}

	if name := summary.Summary.MostCommonTypology; name != "" {
		stats := summary.Distribution[name]
		ins.DominantStrategy = &domain.DominantStrategy{
			Typology:   name,
			Count:      stats.Count,
			Percentage: stats.Percentage,
		}
	}

	if summary.TotalItems > 0 {
		ins.DiversityScore = round2(float64(summary.TypologiesFound) / float64(summary.TotalItems))
	}

	var confSum float64
	var confN int
	var wordCounts []int
	for _, r := range results {
		for _, s := range r.Scores {
			confSum += s
			confN++
		}
		if r.Features != nil {
			wordCounts = append(wordCounts, r.Features.WordCount)
		}
	}
	if confN > 0 {
		ins.AvgConfidence = round3(confSum / float64(confN))
	}

	if len(wordCounts) > 0 {
		tc := &domain.TextCharacteristics{
			MaxWordCount: wordCounts[0],
			MinWordCount: wordCounts[0],
		}
		sum := 0
		for _, wc := range wordCounts {
			sum += wc
			if wc > tc.MaxWordCount {
				tc.MaxWordCount = wc
			}
			if wc < tc.MinWordCount {
				tc.MinWordCount = wc
			}
		}
		tc.AvgWordCount = round1(float64(sum) / float64(len(wordCounts)))
		ins.TextCharacteristics = tc
	}

	return ins
}

// Recommendations produces advisory strings for a campaign report.
func Recommendations(summary *domain.DistributionSummary) []string {
	var recs []string
	if summary.TotalItems == 0 {
		return recs
	}

	if summary.TypologiesFound <= 2 {
		recs = append(recs, fmt.Sprintf(
			"Consider diversifying your copy strategies. Currently using only %d typology/typologies.",
			summary.TypologiesFound,
		))
	}

	if noLabels := summary.Summary.ItemsWithNoLabels; noLabels > 0 {
		pct := float64(noLabels) / float64(summary.TotalItems) * 100
		recs = append(recs, fmt.Sprintf(
			"%d items (%.1f%%) couldn't be classified. Consider strengthening persuasive elements in these items.",
			noLabels, pct,
		))
	}

	var maxUsage float64
	for _, stats := range summary.Distribution {
		if stats.Percentage > maxUsage {
			maxUsage = stats.Percentage
		}
	}
	if maxUsage > 70 {
		recs = append(recs, fmt.Sprintf(
			"One typology dominates %.1f%% of items. Consider A/B testing other persuasion strategies.",
			maxUsage,
		))
	}

	if avg := summary.Summary.AvgLabelsPerItem; avg < 1.5 {
		recs = append(recs, fmt.Sprintf(
			"Average of only %.1f typologies per item. Consider combining multiple persuasion strategies for stronger impact.",
			avg,
		))
	}

	return recs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
