package cmd

import (
	"github.com/lehigh-university-libraries/docvqa/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "DocVQA evaluation tools",
		Long: `Evaluation tools for measuring answer accuracy against DocVQA datasets.

Supports fetching dataset shards from HuggingFace, inspecting records,
running questions through the API with exact-match and ANLS scoring, and
printing saved results.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewFetchCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
