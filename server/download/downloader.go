// Package download provides the batch audio-download bridge. Per-item
// failures are reported, never raised: the batch always completes.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mellowtone/tunescout/plugin/ai/timeout"
)

// Status of a single download item.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result reports the outcome of one item in a batch.
type Result struct {
	Query  string `json:"query"`
	Path   string `json:"path,omitempty"`
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}

// Downloader is the batch-download contract the orchestrator depends on.
type Downloader interface {
	// DownloadBatch downloads every query and returns one result per input,
	// in input order. A failed item yields StatusError; it never aborts the
	// rest of the batch.
	DownloadBatch(ctx context.Context, queries []string) []Result
}

// YTDLPDownloader shells out to yt-dlp, searching each "Artist – Title"
// query and extracting audio into the output directory.
type YTDLPDownloader struct {
	OutputDir   string
	Binary      string // defaults to "yt-dlp"
	Concurrency int    // defaults to 3
	Logger      *slog.Logger
}

// NewYTDLPDownloader creates a downloader writing into outputDir.
func NewYTDLPDownloader(outputDir string, logger *slog.Logger) *YTDLPDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLPDownloader{
		OutputDir:   outputDir,
		Binary:      "yt-dlp",
		Concurrency: 3,
		Logger:      logger,
	}
}

func (d *YTDLPDownloader) DownloadBatch(ctx context.Context, queries []string) []Result {
	results := make([]Result, len(queries))

	if err := os.MkdirAll(d.OutputDir, 0o755); err != nil {
		for i, q := range queries {
			results[i] = Result{Query: q, Status: StatusError, Err: err.Error()}
		}
		return results
	}

	g, ctx := errgroup.WithContext(ctx)
	limit := d.Concurrency
	if limit <= 0 {
		limit = 3
	}
	g.SetLimit(limit)

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			results[i] = d.downloadOne(ctx, query)
			return nil // per-item failures never fail the batch
		})
	}
	_ = g.Wait()

	return results
}

func (d *YTDLPDownloader) downloadOne(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout.DownloadItemTimeout)
	defer cancel()

	outPath := filepath.Join(d.OutputDir, sanitizeFilename(query)+".wav")
	outTmpl := filepath.Join(d.OutputDir, sanitizeFilename(query)+".%(ext)s")

	binary := d.Binary
	if binary == "" {
		binary = "yt-dlp"
	}

	cmd := exec.CommandContext(ctx, binary,
		"--quiet",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "192K",
		"--output", outTmpl,
		fmt.Sprintf("ytsearch:%s", query),
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		d.Logger.Warn("download item failed", "query", query, "error", err,
			"output", truncate(string(out), timeout.MaxTruncateLength))
		return Result{Query: query, Status: StatusError, Err: err.Error()}
	}

	return Result{Query: query, Path: outPath, Status: StatusOK}
}

// sanitizeFilename strips characters that are unsafe in file names.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return strings.TrimSpace(replacer.Replace(name))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
