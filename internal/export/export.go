// Package export flattens classification results to JSON and CSV for
// reporting collaborators.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/copyintel/shrike/internal/domain"
)

// LabelDelimiter joins labels in the CSV labels column.
const LabelDelimiter = "; "

// csvHeader is the fixed column layout of a CSV export.
var csvHeader = []string{
	"id", "original_text", "labels", "label_count",
	"word_count", "exclamation_count", "question_count",
}

// JSON writes results as indented JSON.
func JSON(w io.Writer, results []*domain.Classification) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// CSV writes results in the fixed-column tabular format. Feature columns
// are zero when a result was produced without feature extraction.
func CSV(w io.Writer, results []*domain.Classification) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range results {
		var wordCount, exclCount, questCount int
		if r.Features != nil {
			wordCount = r.Features.WordCount
			exclCount = r.Features.ExclamationCount
			questCount = r.Features.QuestionCount
		}

		row := []string{
			r.ID,
			r.OriginalText,
			strings.Join(r.Labels, LabelDelimiter),
			strconv.Itoa(r.LabelCount),
			strconv.Itoa(wordCount),
			strconv.Itoa(exclCount),
			strconv.Itoa(questCount),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile exports results to path in the given format ("json" or
// "csv").
func WriteFile(path, format string, results []*domain.Classification) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case "json":
		return JSON(f, results)
	case "csv":
		return CSV(f, results)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
