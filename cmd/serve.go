package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/docvqa/internal/answering"
	"github.com/lehigh-university-libraries/docvqa/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port, provider, model string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DocVQA answering API",
		Long: `Starts the DocVQA API on the specified port.

POST /api/process takes a multipart form with an image "file" and a
"question" and replies {"answer": "..."} or {"detail": "..."}. Answers
come from a vision-capable LLM (Ollama, OpenAI or Gemini).`,
		Example: `  # Start server on default port 8000 with Ollama
  docvqa serve

  # Use OpenAI on a custom port
  docvqa serve --provider openai --model gpt-4o --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := answering.NewService(provider, model)
			if err != nil {
				return err
			}
			slog.Info("Answering service ready", "provider", svc.ProviderName, "model", svc.Model)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.New(svc).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("DocVQA API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8000", "Port to listen on")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: ollama, openai, gemini (default $DOCVQA_PROVIDER or ollama)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")

	return cmd
}
