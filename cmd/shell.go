package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/lehigh-university-libraries/docvqa/internal/console"
	"github.com/lehigh-university-libraries/docvqa/internal/docvqa"
	"github.com/lehigh-university-libraries/docvqa/internal/form"
	"github.com/spf13/cobra"
)

const shellHelp = `:image <path>  select a document image
:help          show this help
:quit          exit
anything else is sent as a question about the selected image`

func newShellCmd() *cobra.Command {
	var imagePath, apiURL string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive question loop over one or more images",
		Long: `Starts an interactive prompt. Select an image with ":image <path>", then
type questions about it. Each question is submitted to the DocVQA API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctrl := form.New(view, docvqa.NewClient(docvqa.ResolveEndpoint(apiURL)))

			if imagePath != "" {
				_ = ctrl.SelectFile(ctx, form.PathFile(imagePath))
			}

			rl, err := readline.New("> ")
			if err != nil {
				return err
			}
			defer func() {
				_ = rl.Close()
			}()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
				case line == ":quit" || line == ":q":
					return nil
				case line == ":help":
					fmt.Fprintln(cmd.OutOrStdout(), shellHelp)
				case strings.HasPrefix(line, ":image"):
					path := strings.TrimSpace(strings.TrimPrefix(line, ":image"))
					if path == "" {
						fmt.Fprintln(cmd.ErrOrStderr(), "usage: :image <path>")
						continue
					}
					_ = ctrl.SelectFile(ctx, form.PathFile(path))
				default:
					ctrl.SubmitSelected(ctx, line)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Image to select at startup")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "DocVQA API endpoint (default $DOCVQA_API_URL or "+docvqa.DefaultEndpoint+")")

	return cmd
}
