package results

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/lehigh-university-libraries/docvqa/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// DefaultDir is where eval specs are written.
const DefaultDir = "evals"

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Label       string  `yaml:"label"`
	Endpoint    string  `yaml:"endpoint"`
	DatasetPath string  `yaml:"datasetpath"`
	SampleSize  int     `yaml:"samplesize"`
	Concurrency int     `yaml:"concurrency"`
	Timestamp   string  `yaml:"timestamp"`
	ExactMatch  float64 `yaml:"exactmatch"`
	ANLS        float64 `yaml:"anls"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	QuestionID string   `yaml:"questionid"`
	Question   string   `yaml:"question"`
	Answers    []string `yaml:"answers"`
	Prediction string   `yaml:"prediction,omitempty"`
	ExactMatch bool     `yaml:"exactmatch"`
	ANLS       float64  `yaml:"anls"`
	Error      string   `yaml:"error,omitempty"`
}

// EvalRun is one saved evaluation: its config and per-question results.
type EvalRun struct {
	Config  EvalConfig   `yaml:"config"`
	Results []EvalResult `yaml:"results"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SaveToYAML writes agg to <dir>/<label>-<timestamp>.yaml and returns the
// path written.
func SaveToYAML(dir, label string, concurrency int, agg *metrics.AggregateResults) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	if label == "" {
		label = "docvqa"
	}
	timestamp := agg.EvaluationDate.Format("2006-01-02_15-04-05")
	if agg.EvaluationDate.IsZero() {
		timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	run := EvalRun{
		Config: EvalConfig{
			Label:       label,
			Endpoint:    agg.Endpoint,
			DatasetPath: agg.DatasetPath,
			SampleSize:  agg.SampleSize,
			Concurrency: concurrency,
			Timestamp:   timestamp,
			ExactMatch:  agg.ExactMatchRate,
			ANLS:        agg.AverageANLS,
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}

	for _, r := range agg.Results {
		run.Results = append(run.Results, EvalResult{
			QuestionID: r.QuestionID,
			Question:   r.Question,
			Answers:    r.Answers,
			Prediction: r.Prediction,
			ExactMatch: r.ExactMatch,
			ANLS:       r.ANLS,
			Error:      r.Error,
		})
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", unsafeName.ReplaceAllString(label, "_"), timestamp))

	data, err := yaml.Marshal(&run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}

// LoadYAML reads an evaluation written by SaveToYAML.
func LoadYAML(path string) (*EvalRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval file: %w", err)
	}
	var run EvalRun
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse eval file: %w", err)
	}
	return &run, nil
}
