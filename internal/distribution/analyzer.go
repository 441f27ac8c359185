// Package distribution computes cross-item typology distribution,
// co-occurrence, and summary statistics over classification results.
package distribution

import (
	"math"
	"sort"

	"github.com/copyintel/shrike/internal/domain"
)

// Accumulator gathers distribution state incrementally. Add and Merge
// form a commutative-associative reduce over the counting state, so a
// batch may be partitioned, accumulated per partition, and merged in
// partition order with the same counts as a sequential pass.
//
// The only order-sensitive state is the first-encounter sequence used to
// break ties for the most common typology; merging in partition order
// reproduces the sequential encounter order exactly.
type Accumulator struct {
	totalItems int

	counts  map[string]int
	confSum map[string]float64
	confN   map[string]int
	pairs   map[string]int

	labelTotal int
	maxLabels  int
	zeroLabels int

	firstSeen map[string]int
	seq       int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		counts:    make(map[string]int),
		confSum:   make(map[string]float64),
		confN:     make(map[string]int),
		pairs:     make(map[string]int),
		firstSeen: make(map[string]int),
	}
}

// Add folds one classification result into the accumulator.
func (a *Accumulator) Add(c *domain.Classification) {
	a.totalItems++

	labels := c.Labels
	a.labelTotal += len(labels)
	if len(labels) > a.maxLabels {
		a.maxLabels = len(labels)
	}
	if len(labels) == 0 {
		a.zeroLabels++
	}

	for _, label := range labels {
		if _, ok := a.firstSeen[label]; !ok {
			a.firstSeen[label] = a.seq
			a.seq++
		}
		a.counts[label]++
	}

	// Raw scores per label name come from the matched-typology detail;
	// results stripped of detail still count, they just don't move the
	// confidence average.
	for _, d := range c.Typologies {
		a.confSum[d.Name] += d.Score
		a.confN[d.Name]++
	}

	// Unordered pairs, canonicalized by sorting the two names.
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			first, second := labels[i], labels[j]
			if second < first {
				first, second = second, first
			}
			a.pairs[first+" + "+second]++
		}
	}
}

// Merge folds another accumulator into this one. Counts sum key-wise;
// the other accumulator's first-encounter sequence is appended after
// this one's.
func (a *Accumulator) Merge(other *Accumulator) {
	a.totalItems += other.totalItems
	a.labelTotal += other.labelTotal
	a.zeroLabels += other.zeroLabels
	if other.maxLabels > a.maxLabels {
		a.maxLabels = other.maxLabels
	}

	for label, n := range other.counts {
		a.counts[label] += n
	}
	for name, sum := range other.confSum {
		a.confSum[name] += sum
	}
	for name, n := range other.confN {
		a.confN[name] += n
	}
	for pair, n := range other.pairs {
		a.pairs[pair] += n
	}

	type seen struct {
		label string
		seq   int
	}
	ordered := make([]seen, 0, len(other.firstSeen))
	for label, seq := range other.firstSeen {
		ordered = append(ordered, seen{label, seq})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	for _, s := range ordered {
		if _, ok := a.firstSeen[s.label]; !ok {
			a.firstSeen[s.label] = a.seq
			a.seq++
		}
	}
}

// Summary materializes the accumulated state into a report. An empty
// accumulator yields an explicitly empty summary.
func (a *Accumulator) Summary() *domain.DistributionSummary {
	out := &domain.DistributionSummary{
		TotalItems:      a.totalItems,
		TypologiesFound: len(a.counts),
		Distribution:    make(map[string]domain.TypologyStats, len(a.counts)),
		CoOccurrence:    make(map[string]domain.PairStats, len(a.pairs)),
	}
	if a.totalItems == 0 {
		return out
	}

	total := float64(a.totalItems)

	for label, count := range a.counts {
		var avg float64
		if n := a.confN[label]; n > 0 {
			avg = a.confSum[label] / float64(n)
		}
		out.Distribution[label] = domain.TypologyStats{
			Count:             count,
			Percentage:        round2(float64(count) / total * 100),
			AverageConfidence: round3(avg),
		}
	}

	for pair, count := range a.pairs {
		out.CoOccurrence[pair] = domain.PairStats{
			Count:      count,
			Percentage: round2(float64(count) / total * 100),
		}
	}

	out.Summary = domain.SummaryStats{
		AvgLabelsPerItem:   round2(float64(a.labelTotal) / total),
		MaxLabelsPerItem:   a.maxLabels,
		ItemsWithNoLabels:  a.zeroLabels,
		MostCommonTypology: a.mostCommon(),
	}

	return out
}

// mostCommon picks the highest-count typology, breaking ties by first
// encounter during accumulation.
func (a *Accumulator) mostCommon() string {
	best := ""
	bestCount := 0
	bestSeen := 0
	for label, count := range a.counts {
		seen := a.firstSeen[label]
		if count > bestCount || (count == bestCount && (best == "" || seen < bestSeen)) {
			best = label
			bestCount = count
			bestSeen = seen
		}
	}
	return best
}

// Analyze computes the distribution summary for a batch of results.
func Analyze(results []*domain.Classification) *domain.DistributionSummary {
	acc := NewAccumulator()
	for _, r := range results {
		acc.Add(r)
	}
	return acc.Summary()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
