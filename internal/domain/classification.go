package domain

import "time"

// ErrEmptyInput is the error marker attached to the sentinel result
// produced for empty, whitespace-only, or malformed input. Input problems
// never abort a batch; callers always receive a well-formed result.
const ErrEmptyInput = "Empty or invalid text input"

// Item is one unit of classification input: a piece of copy plus an
// optional caller-supplied identifier.
type Item struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Industry string `json:"industry,omitempty"`
}

// MatchResult is the outcome of evaluating one text against one
// typology's patterns.
type MatchResult struct {
	Score             float64  `json:"score"`
	MatchedSubstrings []string `json:"matchedSubstrings"`
	PassedThreshold   bool     `json:"passedThreshold"`
}

// TypologyDetail describes a matched typology within a classification.
// Only typologies that passed their threshold (and survived the label
// cap) carry a detail entry.
type TypologyDetail struct {
	Name            string   `json:"name"`
	Score           float64  `json:"score"`
	Threshold       float64  `json:"threshold"`
	PatternsMatched []string `json:"patternsMatched"`
	Description     string   `json:"description,omitempty"`
}

// TextFeatures holds auxiliary descriptive features extracted from copy.
// Features never influence classification decisions.
type TextFeatures struct {
	WordCount          int     `json:"wordCount"`
	CharCount          int     `json:"charCount"`
	SentenceCount      int     `json:"sentenceCount"`
	AllCapsWords       int     `json:"allCapsWords"`
	CapsRatio          float64 `json:"capsRatio"`
	ExclamationCount   int     `json:"exclamationCount"`
	QuestionCount      int     `json:"questionCount"`
	NumberCount        int     `json:"numberCount"`
	PercentageMentions int     `json:"percentageMentions"`
	PriceMentions      int     `json:"priceMentions"`
	CTASignals         int     `json:"ctaSignals"`
}

// SentimentIndicators holds crude lexicon-based sentiment counts.
type SentimentIndicators struct {
	PositiveCount int `json:"positiveCount"`
	NegativeCount int `json:"negativeCount"`
	UrgencyCount  int `json:"urgencyCount"`
}

// Classification is the per-item result of typology classification.
//
// Labels is derived solely from Scores and the threshold/cap rule, never
// set independently. Scores always contains an entry for every typology
// in the rule set (matched or not) so callers can normalize downstream;
// the sole exception is the empty-input sentinel, whose Scores is empty.
type Classification struct {
	ID           string   `json:"id"`
	OriginalText string   `json:"originalText"`
	CleanText    string   `json:"cleanText,omitempty"`
	Labels       []string `json:"labels"`
	LabelCount   int      `json:"labelCount"`

	Scores           map[string]float64 `json:"scores"`
	NormalizedScores map[string]float64 `json:"normalizedScores,omitempty"`

	// Typologies and MatchedPatterns are populated only when detailed
	// output is requested; Typologies covers matched typologies only,
	// MatchedPatterns covers every typology key.
	Typologies      map[string]TypologyDetail `json:"typologies,omitempty"`
	MatchedPatterns map[string][]string       `json:"matchedPatterns,omitempty"`

	Features   *TextFeatures        `json:"textFeatures,omitempty"`
	Buzzwords  []string             `json:"buzzwords,omitempty"`
	CTAPhrases []string             `json:"ctaPhrases,omitempty"`
	Sentiment  *SentimentIndicators `json:"sentimentIndicators,omitempty"`

	// Enrichment is the optional LLM-provided enhancement. The
	// classification is fully valid without it.
	Enrichment *Enrichment `json:"enrichment,omitempty"`

	Error        string    `json:"error,omitempty"`
	ClassifiedAt time.Time `json:"classifiedAt"`
}
