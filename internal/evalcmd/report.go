package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/docvqa/internal/eval/results"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string
	var failuresOnly bool

	cmd := &cobra.Command{
		Use:   "report <results.yaml>",
		Short: "Print a saved evaluation",
		Long:  `Prints an evaluation written by "eval run" as text, JSON or CSV.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(args[0], format, failuresOnly, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, csv")
	cmd.Flags().BoolVar(&failuresOnly, "failures", false, "Only show questions without an exact match")

	return cmd
}

func executeReport(path, format string, failuresOnly bool, out io.Writer) error {
	run, err := results.LoadYAML(path)
	if err != nil {
		return err
	}

	if failuresOnly {
		kept := run.Results[:0]
		for _, r := range run.Results {
			if !r.ExactMatch {
				kept = append(kept, r)
			}
		}
		run.Results = kept
	}

	switch format {
	case "text":
		return printTextReport(run, out)
	case "json":
		return printJSONReport(run, out)
	case "csv":
		return printCSVReport(run, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(run *results.EvalRun, out io.Writer) error {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "DocVQA Evaluation Report")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Label:       %s\n", run.Config.Label)
	fmt.Fprintf(out, "Endpoint:    %s\n", run.Config.Endpoint)
	fmt.Fprintf(out, "Dataset:     %s\n", run.Config.DatasetPath)
	fmt.Fprintf(out, "Timestamp:   %s\n", run.Config.Timestamp)
	fmt.Fprintf(out, "Exact Match: %.2f%%\n", run.Config.ExactMatch*100)
	fmt.Fprintf(out, "ANLS:        %.4f\n", run.Config.ANLS)

	for i, r := range run.Results {
		fmt.Fprintf(out, "\n[%d] %s: %s\n", i+1, r.QuestionID, r.Question)
		fmt.Fprintf(out, "  Accepted:   %s\n", strings.Join(r.Answers, " | "))
		if r.Error != "" {
			fmt.Fprintf(out, "  %s\n", r.Error)
			continue
		}
		fmt.Fprintf(out, "  Prediction: %s\n", truncate(r.Prediction, 200))
		fmt.Fprintf(out, "  ANLS:       %.4f\n", r.ANLS)
	}

	return nil
}

func printJSONReport(run *results.EvalRun, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}

func printCSVReport(run *results.EvalRun, out io.Writer) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"question_id", "question", "answers", "prediction", "exact_match", "anls", "error"}); err != nil {
		return err
	}

	for _, r := range run.Results {
		row := []string{
			r.QuestionID,
			r.Question,
			strings.Join(r.Answers, "|"),
			r.Prediction,
			fmt.Sprintf("%t", r.ExactMatch),
			fmt.Sprintf("%.4f", r.ANLS),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
