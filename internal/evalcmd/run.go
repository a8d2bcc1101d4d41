package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/eval/dataset"
	"github.com/lehigh-university-libraries/docvqa/internal/eval/metrics"
	"github.com/lehigh-university-libraries/docvqa/internal/eval/results"
	"github.com/lehigh-university-libraries/docvqa/internal/form"
	"github.com/spf13/cobra"
)

type runOptions struct {
	DatasetPath  string
	Endpoint     string
	Label        string
	OutputDir    string
	OutputJSON   string
	OutputReport string
	Sample       int
	Concurrency  int
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var opts runOptions
	var apiURL string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a DocVQA dataset through the API and score the answers",
		Long: `Submits every question in a DocVQA dataset to the API and scores the
answers with exact match and ANLS (Average Normalized Levenshtein Similarity).

Datasets may be parquet (HuggingFace lmms-lab/DocVQA), JSONL with one record
per line, or the original annotation JSON ({"data": [...]}) with image paths
relative to the JSON file. Results are written as YAML under evals/.`,
		Example: `  # Evaluate 50 questions against a local API
  docvqa eval run --dataset ./validation-00000-of-00006.parquet --sample 50

  # Whole annotation file, 8 requests at a time
  docvqa eval run --dataset ./val/val_v1.0.json --sample -1 --concurrency 8 --label qwen2.5vl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Endpoint = docvqa.ResolveEndpoint(apiURL)
			_, err := executeRun(cmd.Context(), opts, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path to parquet, jsonl or json dataset file (required)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "DocVQA API endpoint (default $DOCVQA_API_URL or "+docvqa.DefaultEndpoint+")")
	cmd.Flags().StringVar(&opts.Label, "label", "docvqa", "Label used in the YAML file name")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", results.DefaultDir, "Directory for the YAML results")
	cmd.Flags().StringVar(&opts.OutputJSON, "output-json", "", "Optional path for aggregate JSON results")
	cmd.Flags().StringVar(&opts.OutputReport, "output-report", "", "Optional path for a detailed text report")
	cmd.Flags().IntVar(&opts.Sample, "sample", 10, "Number of questions to evaluate (-1 for all)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Number of concurrent requests")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func executeRun(ctx context.Context, opts runOptions, out io.Writer) (*metrics.AggregateResults, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	slog.Info("Starting evaluation run", "dataset", opts.DatasetPath, "endpoint", opts.Endpoint, "sample", opts.Sample)

	loader := dataset.NewLoader(opts.DatasetPath)
	records, err := loader.LoadSample(opts.Sample)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "questions", len(records))

	client := docvqa.NewClient(opts.Endpoint)
	evalResults := make([]metrics.EvaluationResult, len(records))

	slog.Info("Processing questions", "concurrency", opts.Concurrency)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, opts.Concurrency)

	for i, record := range records {
		wg.Add(1)
		go func(idx int, record dataset.Record) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Debug("Processing question", "id", record.QuestionID, "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))
			evalResults[idx] = processRecord(ctx, client, loader.BaseDir(), record)
		}(i, record)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := metrics.AggregateEvaluationResults(evalResults, opts.Endpoint, opts.DatasetPath)
	agg.PrintSummary(out)

	path, err := results.SaveToYAML(opts.OutputDir, opts.Label, opts.Concurrency, agg)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "\nEvaluation results saved to: %s\n", path)

	if opts.OutputJSON != "" {
		if err := agg.SaveToJSON(opts.OutputJSON); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "JSON results saved to: %s\n", opts.OutputJSON)
	}
	if opts.OutputReport != "" {
		if err := agg.SaveDetailedReport(opts.OutputReport); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Detailed report saved to: %s\n", opts.OutputReport)
	}

	return agg, nil
}

// processRecord asks one question. Failures are recorded the way the form
// shows them.
func processRecord(ctx context.Context, client *docvqa.Client, baseDir string, record dataset.Record) (result metrics.EvaluationResult) {
	result = metrics.EvaluationResult{
		QuestionID: string(record.QuestionID),
		Question:   record.Question,
		Answers:    record.Answers,
	}

	start := time.Now()
	defer func() { result.ProcessingTime = time.Since(start) }()

	data, err := record.ImageBytes(baseDir)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	answer, err := client.Ask(ctx, &docvqa.Image{Name: record.ImageName(), Data: data}, record.Question)
	if err != nil {
		result.Error = form.Result{Err: err}.Text()
		slog.Warn("Question failed", "id", record.QuestionID, "err", err)
		return result
	}

	result.Prediction = answer
	result.Score()
	return result
}
