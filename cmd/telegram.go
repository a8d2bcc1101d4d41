package cmd

import (
	"fmt"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/telegram"
	"github.com/spf13/cobra"
)

func newTelegramCmd() *cobra.Command {
	var token, apiURL string

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Serve the question form as a Telegram bot",
		Long: `Runs a Telegram bot using long polling. Users send a document photo and
ask questions about it; each question is forwarded to the DocVQA API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("TELEGRAM_BOT_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("telegram bot token required (--token or TELEGRAM_BOT_TOKEN)")
			}

			bot, err := tgbotapi.NewBotAPI(token)
			if err != nil {
				return fmt.Errorf("failed to connect to telegram: %w", err)
			}
			slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

			endpoint := docvqa.ResolveEndpoint(apiURL)
			router := telegram.NewRouter(bot, docvqa.NewClient(endpoint))

			u := tgbotapi.NewUpdate(0)
			u.Timeout = 30 // long polling timeout (sec)
			updates := bot.GetUpdatesChan(u)
			defer bot.StopReceivingUpdates()

			slog.Info("Polling for updates", "endpoint", endpoint)
			router.Run(cmd.Context(), updates)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Telegram bot token (default $TELEGRAM_BOT_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "DocVQA API endpoint (default $DOCVQA_API_URL or "+docvqa.DefaultEndpoint+")")

	return cmd
}
