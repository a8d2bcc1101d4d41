package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// EvaluationResult represents the outcome for a single question
type EvaluationResult struct {
	QuestionID     string
	Question       string
	Answers        []string
	Prediction     string
	ExactMatch     bool
	ANLS           float64
	ProcessingTime time.Duration
	Error          string // If the submission failed
}

// Score fills in ExactMatch and ANLS from the prediction.
func (r *EvaluationResult) Score() {
	if r.Error != "" {
		r.ExactMatch = false
		r.ANLS = 0
		return
	}
	r.ExactMatch = ExactMatch(r.Prediction, r.Answers)
	r.ANLS = ANLS(r.Prediction, r.Answers)
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int
	SuccessCount int
	FailureCount int

	// Failed questions count as zero, matching leaderboard scoring.
	ExactMatchCount int
	ExactMatchRate  float64
	AverageANLS     float64

	// Timing
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	// Detailed results
	Results []EvaluationResult

	// Metadata
	EvaluationDate time.Time
	Endpoint       string
	DatasetPath    string
	SampleSize     int
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, endpoint, datasetPath string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		Endpoint:       endpoint,
		DatasetPath:    datasetPath,
		SampleSize:     len(results),
	}

	var totalANLS float64
	var totalDuration time.Duration
	var successDuration time.Duration

	for _, result := range results {
		totalDuration += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime

		if result.ExactMatch {
			agg.ExactMatchCount++
		}
		totalANLS += result.ANLS
	}

	if agg.TotalRecords > 0 {
		agg.ExactMatchRate = float64(agg.ExactMatchCount) / float64(agg.TotalRecords)
		agg.AverageANLS = totalANLS / float64(agg.TotalRecords)
	}
	if agg.SuccessCount > 0 {
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}

	agg.TotalProcessingTime = totalDuration

	return agg
}

// PrintSummary writes a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "DOCVQA EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Endpoint: %s\n", a.Endpoint)
	fmt.Fprintf(w, "Dataset: %s\n", a.DatasetPath)
	fmt.Fprintf(w, "Sample Size: %d questions\n", a.SampleSize)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROCESSING STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Questions: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", a.SuccessCount, percent(a.SuccessCount, a.TotalRecords))
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", a.FailureCount, percent(a.FailureCount, a.TotalRecords))
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Exact Match: %d (%.2f%%)\n", a.ExactMatchCount, a.ExactMatchRate*100)
	fmt.Fprintf(w, "ANLS: %.4f\n", a.AverageANLS)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}

// SaveDetailedReport saves a detailed report with individual results
func (a *AggregateResults) SaveDetailedReport(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "DOCVQA EVALUATION DETAILED REPORT\n")
	fmt.Fprintf(file, "Generated: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Endpoint: %s\n", a.Endpoint)
	separator := strings.Repeat("=", 80)
	fmt.Fprintf(file, "%s\n\n", separator)

	dash := strings.Repeat("-", 80)
	for i, result := range a.Results {
		fmt.Fprintf(file, "QUESTION %d: %s\n", i+1, result.QuestionID)
		fmt.Fprintf(file, "%s\n", dash)
		fmt.Fprintf(file, "Question: %s\n", result.Question)
		fmt.Fprintf(file, "Accepted: %s\n", strings.Join(result.Answers, " | "))
		fmt.Fprintf(file, "Processing Time: %s\n", result.ProcessingTime)

		if result.Error != "" {
			fmt.Fprintf(file, "ERROR: %s\n", result.Error)
		} else {
			fmt.Fprintf(file, "Prediction: %s\n", result.Prediction)
			fmt.Fprintf(file, "Exact Match: %t\n", result.ExactMatch)
			fmt.Fprintf(file, "ANLS: %.4f\n", result.ANLS)
		}

		fmt.Fprintf(file, "\n%s\n\n", separator)
	}

	return nil
}
