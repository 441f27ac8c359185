package textproc

import (
	"reflect"
	"testing"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"PlainText", "Shop now", "Shop now"},
		{"StripsHTML", "<b>Bold</b> <a href='#'>claim</a>", "Bold claim"},
		{"StripsURLs", "Visit https://example.com/deal today", "Visit today"},
		{"CollapsesWhitespace", "too   many\n\nspaces\t here", "too many spaces here"},
		{"TrimsEdges", "  padded  ", "padded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	f := Features("HURRY! Get 50% off, was $100. Why wait?")

	if f.WordCount != 8 {
		t.Errorf("expected 8 words, got %d", f.WordCount)
	}
	if f.ExclamationCount != 1 {
		t.Errorf("expected 1 exclamation, got %d", f.ExclamationCount)
	}
	if f.QuestionCount != 1 {
		t.Errorf("expected 1 question mark, got %d", f.QuestionCount)
	}
	if f.AllCapsWords != 1 {
		t.Errorf("expected 1 all-caps word, got %d", f.AllCapsWords)
	}
	if f.PercentageMentions != 1 {
		t.Errorf("expected 1 percentage mention, got %d", f.PercentageMentions)
	}
	if f.PriceMentions != 1 {
		t.Errorf("expected 1 price mention, got %d", f.PriceMentions)
	}
	if f.NumberCount != 2 {
		t.Errorf("expected 2 numbers, got %d", f.NumberCount)
	}
	if f.CapsRatio <= 0 {
		t.Errorf("expected positive caps ratio, got %v", f.CapsRatio)
	}
}

func TestBuzzwords(t *testing.T) {
	t.Run("SortedAndDeduplicated", func(t *testing.T) {
		got := Buzzwords("premium quality premium savings", 3)
		want := []string{"premium", "quality", "savings"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("StopWordsAndShortWordsDropped", func(t *testing.T) {
		got := Buzzwords("the best is an it deal", 3)
		for _, w := range got {
			if w == "the" || w == "it" || w == "an" || w == "is" {
				t.Errorf("unexpected word %q in %v", w, got)
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "discover premium quality savings discover"
		a := Buzzwords(text, 3)
		b := Buzzwords(text, 3)
		if !reflect.DeepEqual(a, b) {
			t.Error("buzzword extraction should be deterministic")
		}
	})
}

func TestCTAPhrases(t *testing.T) {
	got := CTAPhrases("Shop Now and sign up! SHOP NOW again.")

	// Deduplicated, lowercased, sorted.
	want := []string{"shop now", "sign up"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSentiment(t *testing.T) {
	s := Sentiment("An amazing product. Never worry, order today. The worst is over!")

	if s.PositiveCount != 1 {
		t.Errorf("expected 1 positive indicator, got %d", s.PositiveCount)
	}
	if s.NegativeCount != 2 {
		t.Errorf("expected 2 negative indicators (never, worst), got %d", s.NegativeCount)
	}
	if s.UrgencyCount != 1 {
		t.Errorf("expected 1 urgency indicator (today), got %d", s.UrgencyCount)
	}
}
