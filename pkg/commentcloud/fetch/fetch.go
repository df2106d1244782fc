// Package fetch pages through the comment threads of a video.
package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/internal/logging"
	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

// Page is one response of the comment-thread listing.
// An empty NextPageToken marks the last page.
type Page struct {
	Items         []*youtube.CommentThread
	NextPageToken string
}

// PageSource lists one page of comment threads for a video.
// pageToken is empty for the first page.
type PageSource interface {
	ListPage(ctx context.Context, videoID, pageToken string) (Page, error)
}

// Fetcher drives a PageSource until the pages run out or MaxPages is hit.
type Fetcher struct {
	Source PageSource
	// MaxPages bounds the number of requests; nil means unbounded.
	MaxPages *int
	// Limiter paces requests; nil sends them back to back.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// Result holds the concatenated items and the number of pages requested.
type Result struct {
	Items []*youtube.CommentThread
	Pages int
}

// MaxPages is a convenience for building an optional page bound.
func MaxPages(n int) *int {
	return &n
}

// Fetch requests pages in sequence, following continuation tokens.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (Result, error) {
	if f.MaxPages != nil && *f.MaxPages <= 0 {
		return Result{}, nil
	}
	logger := logging.OrDefault(f.Logger)

	var res Result
	token := ""
	for {
		if err := f.wait(ctx); err != nil {
			return Result{}, fmt.Errorf("%w: page %d: %w", internalerr.ErrFetchFailed, res.Pages+1, err)
		}

		page, err := f.Source.ListPage(ctx, videoID, token)
		if err != nil {
			return Result{}, fmt.Errorf("%w: page %d: %w", internalerr.ErrFetchFailed, res.Pages+1, err)
		}
		res.Pages++
		res.Items = append(res.Items, page.Items...)
		logger.Info("fetched comment page", "video_id", videoID, "page", res.Pages, "items", len(page.Items))

		if page.NextPageToken == "" {
			break
		}
		if f.MaxPages != nil && res.Pages >= *f.MaxPages {
			break
		}
		token = page.NextPageToken
	}

	return res, nil
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.Limiter == nil {
		return ctx.Err()
	}
	return f.Limiter.Wait(ctx)
}
