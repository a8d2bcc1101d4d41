package cmd

import (
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/docvqa/internal/logging"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel, logFormat, logFile string

	cmd := &cobra.Command{
		Use:   "docvqa",
		Short: "Ask questions about document images",
		Long: `DocVQA answers natural-language questions about scanned documents.

It ships the answering backend (serve), clients that submit an image and a
question to it (ask, shell, telegram), and an evaluation harness for
measuring answer accuracy against DocVQA datasets (eval).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			logging.Setup(logLevel, logFormat, logFile)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default $LOG_FORMAT or text)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated at 10MB (default $LOG_FILE)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newShellCmd())
	cmd.AddCommand(newTelegramCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
