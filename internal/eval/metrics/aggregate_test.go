package metrics

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAggregateEvaluationResults(t *testing.T) {
	results := []EvaluationResult{
		{
			QuestionID:     "1",
			Question:       "What is the date?",
			Answers:        []string{"May 5, 1970"},
			Prediction:     "May 5, 1970",
			ExactMatch:     true,
			ANLS:           1.0,
			ProcessingTime: 5 * time.Second,
		},
		{
			QuestionID:     "2",
			Question:       "Who signed?",
			Answers:        []string{"J. Smith"},
			Prediction:     "J Smith",
			ANLS:           0.875,
			ProcessingTime: 3 * time.Second,
		},
		{
			QuestionID:     "3",
			Question:       "What is the total?",
			Answers:        []string{"$10"},
			Error:          "Error: Inference failed: timeout",
			ProcessingTime: 1 * time.Second,
		},
	}

	agg := AggregateEvaluationResults(results, "http://127.0.0.1:8000/api/process", "val.parquet")

	if agg.TotalRecords != 3 {
		t.Errorf("Expected TotalRecords=3, got %d", agg.TotalRecords)
	}
	if agg.SuccessCount != 2 {
		t.Errorf("Expected SuccessCount=2, got %d", agg.SuccessCount)
	}
	if agg.FailureCount != 1 {
		t.Errorf("Expected FailureCount=1, got %d", agg.FailureCount)
	}
	if agg.ExactMatchCount != 1 {
		t.Errorf("Expected ExactMatchCount=1, got %d", agg.ExactMatchCount)
	}
	if math.Abs(agg.ExactMatchRate-1.0/3.0) > 1e-9 {
		t.Errorf("Expected ExactMatchRate=0.333, got %f", agg.ExactMatchRate)
	}
	if math.Abs(agg.AverageANLS-1.875/3.0) > 1e-9 {
		t.Errorf("Expected AverageANLS=0.625, got %f", agg.AverageANLS)
	}
	if agg.Endpoint != "http://127.0.0.1:8000/api/process" {
		t.Errorf("Unexpected endpoint %s", agg.Endpoint)
	}

	expectedTotal := 9 * time.Second
	if agg.TotalProcessingTime != expectedTotal {
		t.Errorf("Expected TotalProcessingTime=%s, got %s", expectedTotal, agg.TotalProcessingTime)
	}
	expectedAvg := 4 * time.Second // (5 + 3) / 2, only successful
	if agg.AverageProcessingTime != expectedAvg {
		t.Errorf("Expected AverageProcessingTime=%s, got %s", expectedAvg, agg.AverageProcessingTime)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := AggregateEvaluationResults(nil, "", "")

	if agg.ExactMatchRate != 0 || agg.AverageANLS != 0 {
		t.Errorf("Expected zero scores, got %+v", agg)
	}

	var buf bytes.Buffer
	agg.PrintSummary(&buf)
	if !strings.Contains(buf.String(), "Successful: 0 (0.0%)") {
		t.Errorf("Unexpected summary:\n%s", buf.String())
	}
}

func TestScore(t *testing.T) {
	r := EvaluationResult{Answers: []string{"University of California"}, Prediction: "university of california"}
	r.Score()
	if !r.ExactMatch || r.ANLS != 1.0 {
		t.Errorf("Expected exact match, got %+v", r)
	}

	failed := EvaluationResult{Answers: []string{"x"}, Prediction: "x", Error: "boom"}
	failed.Score()
	if failed.ExactMatch || failed.ANLS != 0 {
		t.Errorf("Expected failed result to score zero, got %+v", failed)
	}
}

func TestPrintSummary(t *testing.T) {
	agg := AggregateEvaluationResults([]EvaluationResult{
		{QuestionID: "1", Prediction: "a", Answers: []string{"a"}, ExactMatch: true, ANLS: 1},
	}, "http://localhost:8000/api/process", "val.jsonl")

	var buf bytes.Buffer
	agg.PrintSummary(&buf)
	out := buf.String()

	for _, want := range []string{"DOCVQA EVALUATION SUMMARY", "Exact Match: 1 (100.00%)", "ANLS: 1.0000", "Dataset: val.jsonl"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
}

func TestSaveToJSON(t *testing.T) {
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "test_results.json")

	results := []EvaluationResult{
		{QuestionID: "123", Question: "Total?", Prediction: "$10", Answers: []string{"$10"}, ExactMatch: true, ANLS: 1},
	}

	agg := AggregateEvaluationResults(results, "endpoint", "data.jsonl")

	if err := agg.SaveToJSON(jsonPath); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	content, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON file: %v", err)
	}
	if !strings.Contains(string(content), `"AverageANLS": 1`) {
		t.Errorf("JSON missing ANLS:\n%s", content)
	}
}

func TestSaveDetailedReport(t *testing.T) {
	tmpDir := t.TempDir()
	reportPath := filepath.Join(tmpDir, "test_report.txt")

	results := []EvaluationResult{
		{
			QuestionID:     "123",
			Question:       "What is the title?",
			Answers:        []string{"Annual Report", "annual report 1975"},
			Prediction:     "Annual Report",
			ExactMatch:     true,
			ANLS:           1,
			ProcessingTime: 5 * time.Second,
		},
		{
			QuestionID: "456",
			Question:   "Who signed?",
			Answers:    []string{"J. Smith"},
			Error:      "Error: Something went wrong on the server.",
		},
	}

	agg := AggregateEvaluationResults(results, "endpoint", "data.jsonl")

	if err := agg.SaveDetailedReport(reportPath); err != nil {
		t.Fatalf("SaveDetailedReport failed: %v", err)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}
	contentStr := string(content)

	for _, want := range []string{
		"DOCVQA EVALUATION DETAILED REPORT",
		"QUESTION 1: 123",
		"Accepted: Annual Report | annual report 1975",
		"Exact Match: true",
		"ERROR: Error: Something went wrong on the server.",
	} {
		if !strings.Contains(contentStr, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}
