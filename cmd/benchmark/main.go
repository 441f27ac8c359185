// Benchmark tool for testing Shrike against labeled marketing copy.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/labeled_copy.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled copy data (id, text, expected labels)
//   2. Sends each item to Shrike for classification
//   3. Compares predicted labels with expected labels
//   4. Calculates micro precision, recall, F1-score, and exact-match rate
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LabeledItem represents a row from the labeled copy dataset.
type LabeledItem struct {
	ID       string
	Text     string
	Expected []string
}

// ClassifyRequest is the Shrike API request format.
type ClassifyRequest struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ClassifyResponse is the Shrike API response format.
type ClassifyResponse struct {
	ID         string             `json:"id"`
	Labels     []string           `json:"labels"`
	LabelCount int                `json:"labelCount"`
	Scores     map[string]float64 `json:"scores"`
	Error      string             `json:"error,omitempty"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TruePositives  int64 // Expected labels that were predicted
	FalsePositives int64 // Predicted labels that were not expected
	FalseNegatives int64 // Expected labels that were missed

	ExactMatches   int64 // Items where predicted == expected exactly
	TotalProcessed int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled copy CSV file (id,text,labels)")
	baseURL := flag.String("url", "http://localhost:8080", "Shrike base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum items to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each item result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/labeled_copy.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("=================================================================")
	fmt.Println("       SHRIKE BENCHMARK - Labeled Copy Classification")
	fmt.Println("=================================================================")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Shrike URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Println()

	// Check Shrike is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Shrike not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Shrike is running:")
		fmt.Println("  go run cmd/shrike/main.go")
		os.Exit(1)
	}
	fmt.Println("Shrike is healthy")

	// Read labeled data
	fmt.Printf("\nReading labeled copy from %s...\n", *csvPath)
	items, err := readLabeledCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d items\n", len(items))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(items, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readLabeledCSV(path string, limit int) ([]LabeledItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, required := range []string{"id", "text", "labels"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var items []LabeledItem

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		var expected []string
		for _, label := range strings.Split(record[colIndex["labels"]], ";") {
			label = strings.TrimSpace(label)
			if label != "" {
				expected = append(expected, label)
			}
		}

		items = append(items, LabeledItem{
			ID:       record[colIndex["id"]],
			Text:     record[colIndex["text"]],
			Expected: expected,
		})

		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return items, nil
}

func runBenchmark(items []LabeledItem, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan LabeledItem, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for item := range work {
				start := time.Now()
				result, err := classifyItem(client, baseURL, tenantID, item)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", item.ID, err)
					}
					continue
				}

				tp, fp, fn := labelCounts(item.Expected, result.Labels)
				atomic.AddInt64(&metrics.TruePositives, tp)
				atomic.AddInt64(&metrics.FalsePositives, fp)
				atomic.AddInt64(&metrics.FalseNegatives, fn)

				exact := fp == 0 && fn == 0
				if exact {
					atomic.AddInt64(&metrics.ExactMatches, 1)
				}

				if verbose {
					status := "OK "
					if !exact {
						status = "MISS"
					}
					fmt.Printf("%s %-12s | expected: %-40s | got: %s\n",
						status,
						item.ID,
						strings.Join(item.Expected, ";"),
						strings.Join(result.Labels, ";"),
					)
				}
			}
		}()
	}

	for _, item := range items {
		work <- item
	}
	close(work)

	wg.Wait()

	return metrics
}

// labelCounts compares expected and predicted label sets.
func labelCounts(expected, predicted []string) (tp, fp, fn int64) {
	expectedSet := make(map[string]bool, len(expected))
	for _, l := range expected {
		expectedSet[l] = true
	}
	predictedSet := make(map[string]bool, len(predicted))
	for _, l := range predicted {
		predictedSet[l] = true
	}

	for l := range predictedSet {
		if expectedSet[l] {
			tp++
		} else {
			fp++
		}
	}
	for l := range expectedSet {
		if !predictedSet[l] {
			fn++
		}
	}
	return tp, fp, fn
}

func classifyItem(client *http.Client, baseURL, tenantID string, item LabeledItem) (*ClassifyResponse, error) {
	req := ClassifyRequest{
		ID:   item.ID,
		Text: item.Text,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	sort.Strings(result.Labels)
	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n=================================================================")
	fmt.Println("                      BENCHMARK RESULTS")
	fmt.Println("=================================================================")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\nLABEL COUNTS (micro)\n")
	fmt.Printf("   True Positives:   %d\n", m.TruePositives)
	fmt.Printf("   False Positives:  %d\n", m.FalsePositives)
	fmt.Printf("   False Negatives:  %d\n", m.FalseNegatives)

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	exactRate := float64(0)
	if m.TotalProcessed > 0 {
		exactRate = float64(m.ExactMatches) / float64(m.TotalProcessed)
	}

	fmt.Printf("\nCLASSIFICATION METRICS\n")
	fmt.Printf("   Precision:    %.4f  (of predicted labels, how many were expected)\n", precision)
	fmt.Printf("   Recall:       %.4f  (of expected labels, how many were predicted)\n", recall)
	fmt.Printf("   F1-Score:     %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Exact Match:  %.4f  (items with the exact expected label set)\n", exactRate)

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		ips := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f items/sec\n", ips)
	}

	fmt.Println()
}
