package domain

import "time"

// TypologyStats describes how often one typology appeared across a batch.
type TypologyStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	// AverageConfidence is the mean raw score across only the items where
	// the typology was counted; unmatched items do not dilute it.
	AverageConfidence float64 `json:"averageConfidence"`
}

// PairStats counts the joint appearance of two typology labels on the
// same item. Pairs are canonicalized by sorting the two names, so (A,B)
// and (B,A) collapse to one key.
type PairStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SummaryStats holds batch-level aggregate statistics.
type SummaryStats struct {
	AvgLabelsPerItem  float64 `json:"avgLabelsPerItem"`
	MaxLabelsPerItem  int     `json:"maxLabelsPerItem"`
	ItemsWithNoLabels int     `json:"itemsWithNoLabels"`
	// MostCommonTypology breaks count ties by first encounter during
	// accumulation. That ordering is documented, not canonical.
	MostCommonTypology string `json:"mostCommonTypology,omitempty"`
}

// DistributionSummary is the cross-item distribution and co-occurrence
// report for a batch of classification results. A batch of size zero
// yields an explicitly empty summary, never a division error.
type DistributionSummary struct {
	TotalItems      int                      `json:"totalItems"`
	TypologiesFound int                      `json:"typologiesFound"`
	Distribution    map[string]TypologyStats `json:"distribution"`
	CoOccurrence    map[string]PairStats     `json:"coOccurrence"`
	Summary         SummaryStats             `json:"summary"`
}

// DominantStrategy names the most used typology in a campaign.
type DominantStrategy struct {
	Typology   string  `json:"typology"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TextCharacteristics aggregates word-count features across a campaign.
type TextCharacteristics struct {
	AvgWordCount float64 `json:"avgWordCount"`
	MaxWordCount int     `json:"maxWordCount"`
	MinWordCount int     `json:"minWordCount"`
}

// CampaignInsights is derived commentary layered on top of a
// DistributionSummary.
type CampaignInsights struct {
	DominantStrategy    *DominantStrategy    `json:"dominantStrategy,omitempty"`
	DiversityScore      float64              `json:"diversityScore"`
	AvgConfidence       float64              `json:"avgConfidence"`
	TextCharacteristics *TextCharacteristics `json:"textCharacteristics,omitempty"`
}

// CampaignReport is the persisted outcome of analyzing one campaign.
type CampaignReport struct {
	ID              string               `json:"id"`
	CampaignName    string               `json:"campaignName"`
	TotalItems      int                  `json:"totalItems"`
	Distribution    *DistributionSummary `json:"distribution"`
	Insights        *CampaignInsights    `json:"insights,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}
