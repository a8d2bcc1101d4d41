package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HuggingFace dataset repository
	HFDatasetRepo = "lmms-lab/DocVQA"

	// HFResolveURL is formatted with the repo and the file path.
	HFResolveURL = "https://huggingface.co/datasets/%s/resolve/main/%s"

	// Default cache directory (similar to Python's datasets library)
	DefaultCacheDir = "~/.cache/huggingface/datasets"
)

// DefaultFile is the first validation shard of the DocVQA config.
const DefaultFile = "DocVQA/validation-00000-of-00006.parquet"

// DownloadConfig configures dataset downloading
type DownloadConfig struct {
	CacheDir      string
	Repo          string
	BaseURL       string // overrides HFResolveURL; formatted with repo and file
	ForceDownload bool
	Token         string // HuggingFace token for gated datasets
}

// Downloader handles downloading and caching datasets from HuggingFace
type Downloader struct {
	config     DownloadConfig
	httpClient *http.Client
}

// NewDownloader creates a new dataset downloader
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if config.Repo == "" {
		config.Repo = HFDatasetRepo
	}
	if config.BaseURL == "" {
		config.BaseURL = HFResolveURL
	}

	// Expand ~ to home directory
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}

	return &Downloader{
		config:     config,
		httpClient: &http.Client{},
	}
}

// CachePath returns the path where a dataset file would be cached
func (d *Downloader) CachePath(filename string) string {
	return filepath.Join(d.config.CacheDir, d.config.Repo, filename)
}

// Download fetches filename from the dataset repo unless it is cached and
// returns the local path.
func (d *Downloader) Download(ctx context.Context, filename string) (string, error) {
	cachedPath := d.CachePath(filename)
	if err := os.MkdirAll(filepath.Dir(cachedPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached dataset", "path", cachedPath)
			return cachedPath, nil
		}
	}

	slog.Info("Downloading dataset from HuggingFace", "repo", d.config.Repo, "file", filename)

	url := fmt.Sprintf(d.config.BaseURL, d.config.Repo, filename)
	if err := d.downloadFile(ctx, url, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}

	slog.Info("Dataset downloaded successfully", "path", cachedPath)
	return cachedPath, nil
}

// downloadFile streams url into destPath through a temporary file
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}
	slog.Debug("Download complete", "bytes", written, "expected", resp.ContentLength)

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}

// ClearCache removes all cached files for the configured repo
func (d *Downloader) ClearCache() error {
	cacheDir := filepath.Join(d.config.CacheDir, d.config.Repo)
	slog.Info("Clearing cache", "path", cacheDir)
	return os.RemoveAll(cacheDir)
}
