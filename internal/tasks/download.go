package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/formatter"
	"github.com/desertthunder/imgmatch/internal/models"
	"golang.org/x/time/rate"
)

// DownloadOpts configures [DownloadAll].
type DownloadOpts struct {
	Dir       string       // Output directory (default: matched)
	RateLimit float64      // Downloads per second (default: 4)
	Client    *http.Client // HTTP client (default: 30s timeout)
	Logger    *log.Logger
}

// DownloadItem is the result for one matched image.
type DownloadItem struct {
	Position int // 1-based
	Ref      models.ImageReference
	Path     string
	Err      error
}

// DownloadResult summarizes a download-all pass.
type DownloadResult struct {
	Dir       string
	Items     []DownloadItem
	Succeeded int
	Failed    int
}

// DownloadAll saves each match in order as matched-image-<n><ext> under opts.Dir.
//
// Downloads run one at a time, paced by a rate limiter. A failed item is recorded and the loop continues;
// only a missing output directory or a canceled context stops it early.
func DownloadAll(ctx context.Context, matches []models.ImageReference, opts DownloadOpts, progress chan<- ProgressUpdate) (*DownloadResult, error) {
	if opts.Dir == "" {
		opts.Dir = "matched"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &DownloadResult{Dir: opts.Dir, Items: make([]DownloadItem, 0, len(matches))}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	for i, ref := range matches {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		item := DownloadItem{Position: i + 1, Ref: ref}
		data, err := formatter.DownloadImage(ctx, opts.Client, string(ref))
		if err == nil {
			item.Path = filepath.Join(opts.Dir, formatter.DownloadName(i+1, ref))
			err = os.WriteFile(item.Path, data, 0644)
		}

		if err != nil {
			item.Err = err
			result.Failed++
			if opts.Logger != nil {
				opts.Logger.Warn("download failed", "position", i+1, "ref", ref, "error", err)
			}
		} else {
			result.Succeeded++
		}

		result.Items = append(result.Items, item)
		sendProgress(progress, downloadUpdate(i+1, len(matches), item))
	}

	return result, nil
}
