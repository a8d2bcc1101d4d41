package cmd

import (
	"github.com/lehigh-university-libraries/docvqa/internal/console"
	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/form"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var imagePath, question, apiURL string

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask one question about a document image",
		Long: `Uploads an image and a question to a DocVQA API and prints the answer.

Errors are printed as "Error: <message>" and the command exits non-zero.`,
		Example: `  docvqa ask --image invoice.png --question "What is the total?"

  # Against a remote API
  docvqa ask -i letter.jpg -q "Who signed the letter?" --api-url http://gpu-box:8000/api/process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctrl := form.New(view, docvqa.NewClient(docvqa.ResolveEndpoint(apiURL)))

			var f form.File
			if imagePath != "" {
				f = form.PathFile(imagePath)
				if err := ctrl.SelectFile(ctx, f); err != nil {
					return err
				}
			}

			return ctrl.Submit(ctx, f, question).Err
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path to the document image")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question to ask about the image")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "DocVQA API endpoint (default $DOCVQA_API_URL or "+docvqa.DefaultEndpoint+")")

	return cmd
}
