package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/eval/dataset"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset records",
		Long: `Inspect questions from a parquet, jsonl or json DocVQA dataset file.

Shows each question, its accepted answers and where its page image comes
from, which is useful for checking a dataset before an evaluation run.`,
		Example: `  # Inspect first 5 records interactively
  docvqa eval inspect --dataset ./validation.parquet --limit 5 --interactive

  # Inspect all records (no limit)
  docvqa eval inspect --dataset ./val_v1.0.json --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			return executeInspect(cmd.Context(), datasetPath, limit, interactive, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet, jsonl or json dataset file (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func executeInspect(ctx context.Context, datasetPath string, limit int, interactive bool, in io.Reader, out io.Writer) error {
	loader := dataset.NewLoader(datasetPath)

	records, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(out, "Loaded %d records from %s\n", len(records), datasetPath)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)

	for i, record := range records {
		// Check for context cancellation (e.g., Ctrl+C) at the start of each iteration
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(out, "RECORD %d/%d\n", i+1, len(records))
		fmt.Fprintln(out, strings.Repeat("-", 80))
		fmt.Fprintf(out, "Question ID:    %s\n", record.QuestionID)
		if record.DocID != 0 {
			fmt.Fprintf(out, "Document ID:    %d\n", record.DocID)
		}
		fmt.Fprintf(out, "Question:       %s\n", record.Question)
		fmt.Fprintf(out, "Answers:        %s\n", strings.Join(record.Answers, " | "))
		if len(record.QuestionTypes) > 0 {
			fmt.Fprintf(out, "Types:          %s\n", strings.Join(record.QuestionTypes, ", "))
		}

		switch {
		case len(record.Image.Bytes) > 0:
			fmt.Fprintf(out, "Image:          embedded, %d bytes, %s\n", len(record.Image.Bytes), docvqa.SniffMimeType(record.Image.Bytes))
		case record.HasImage():
			data, err := record.ImageBytes(loader.BaseDir())
			if err != nil {
				fmt.Fprintf(out, "Image:          %s (unreadable: %v)\n", record.ImageName(), err)
			} else {
				fmt.Fprintf(out, "Image:          %s, %d bytes, %s\n", record.ImageName(), len(data), docvqa.SniffMimeType(data))
			}
		default:
			fmt.Fprintln(out, "Image:          none")
		}

		fmt.Fprintln(out)

		if interactive {
			fmt.Fprint(out, "Press Enter to continue to next record (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(out, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(out)
			}
		}
	}

	return nil
}

