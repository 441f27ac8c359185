// Package textproc provides text cleanup and auxiliary feature
// extraction for ad copy. Everything here is descriptive output only:
// classification decisions never depend on it.
package textproc

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/copyintel/shrike/internal/domain"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	urlRe        = regexp.MustCompile(`https?://[^\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	allCapsRe    = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	numberRe     = regexp.MustCompile(`\d+`)
	percentRe    = regexp.MustCompile(`\d+%`)
	priceRe      = regexp.MustCompile(`\$\d+`)
	lowerWordRe  = regexp.MustCompile(`\b[a-z]+\b`)

	ctaSignalRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(shop|buy|get|try|learn|discover|sign up|download)\b`),
		regexp.MustCompile(`(?i)\b(now|today|click|tap|visit)\b`),
	}

	ctaPhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(shop now|buy now|get started|learn more|sign up|try free)\b`),
		regexp.MustCompile(`(?i)\b(download|subscribe|register|join|order|purchase)\b`),
		regexp.MustCompile(`(?i)\b(click here|tap here|visit|call now|book now)\b`),
	}
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "its": {}, "may": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "way": {}, "who": {},
	"boy": {}, "did": {}, "man": {}, "men": {}, "put": {}, "say": {},
	"she": {}, "too": {}, "use": {},
}

var positiveWords = []string{
	"amazing", "awesome", "beautiful", "best", "better", "excellent",
	"fantastic", "great", "incredible", "love", "perfect", "wonderful",
}

var negativeWords = []string{
	"bad", "boring", "difficult", "hard", "hate", "horrible",
	"never", "no", "problem", "terrible", "ugly", "worst",
}

var urgencyWords = []string{
	"fast", "hurry", "immediate", "instant", "now", "quick",
	"rapid", "rush", "soon", "today", "urgent",
}

// Clean strips HTML tags and URLs and collapses whitespace.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Features extracts linguistic features from cleaned copy.
func Features(text string) *domain.TextFeatures {
	f := &domain.TextFeatures{
		WordCount:          len(strings.Fields(text)),
		CharCount:          len(text),
		AllCapsWords:       len(allCapsRe.FindAllString(text, -1)),
		ExclamationCount:   strings.Count(text, "!"),
		QuestionCount:      strings.Count(text, "?"),
		NumberCount:        len(numberRe.FindAllString(text, -1)),
		PercentageMentions: len(percentRe.FindAllString(text, -1)),
		PriceMentions:      len(priceRe.FindAllString(text, -1)),
	}

	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			f.SentenceCount++
		}
	}

	if len(text) > 0 {
		upper := 0
		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		f.CapsRatio = float64(upper) / float64(len([]rune(text)))
	}

	for _, re := range ctaSignalRes {
		f.CTASignals += len(re.FindAllString(text, -1))
	}

	return f
}

// Buzzwords extracts candidate buzzwords: lowercase words of at least
// minLength characters that are not stop words. The result is
// deduplicated and sorted so repeated classification of the same text
// is byte-identical.
func Buzzwords(text string, minLength int) []string {
	clean := strings.ToLower(Clean(text))
	seen := make(map[string]struct{})
	for _, w := range lowerWordRe.FindAllString(clean, -1) {
		if len(w) < minLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		seen[w] = struct{}{}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// CTAPhrases extracts recognized call-to-action phrases, deduplicated
// and sorted.
func CTAPhrases(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range ctaPhraseRes {
		for _, m := range re.FindAllString(text, -1) {
			seen[strings.ToLower(m)] = struct{}{}
		}
	}

	phrases := make([]string, 0, len(seen))
	for p := range seen {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)
	return phrases
}

// Sentiment counts crude lexicon-based sentiment indicators.
func Sentiment(text string) *domain.SentimentIndicators {
	lower := strings.ToLower(text)
	s := &domain.SentimentIndicators{}
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			s.PositiveCount++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			s.NegativeCount++
		}
	}
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			s.UrgencyCount++
		}
	}
	return s
}
