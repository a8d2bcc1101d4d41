package evalcmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/docvqa/internal/eval/dataset"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command
func NewFetchCmd() *cobra.Command {
	var cfg dataset.DownloadConfig
	var file string
	var clear bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a DocVQA parquet shard from HuggingFace",
		Long: `Downloads a dataset file from HuggingFace into the local cache and prints
its path. Cached files are reused unless --force is given.`,
		Example: `  # First validation shard of lmms-lab/DocVQA
  docvqa eval fetch

  # A different shard
  docvqa eval fetch --file DocVQA/validation-00001-of-00006.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				cfg.Token = os.Getenv("HF_TOKEN")
			}
			d := dataset.NewDownloader(cfg)

			if clear {
				return d.ClearCache()
			}

			path, err := d.Download(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", dataset.DefaultFile, "File path within the dataset repository")
	cmd.Flags().StringVar(&cfg.Repo, "repo", dataset.HFDatasetRepo, "HuggingFace dataset repository")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", dataset.DefaultCacheDir, "Local cache directory")
	cmd.Flags().StringVar(&cfg.Token, "token", "", "HuggingFace token (default $HF_TOKEN)")
	cmd.Flags().BoolVar(&cfg.ForceDownload, "force", false, "Download even when cached")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the cached files for the repository and exit")

	return cmd
}
