// Package youtube lists comment threads through the YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/fetch"
	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

var listParts = []string{"snippet", "replies"}

// Source implements fetch.PageSource over the commentThreads.list endpoint.
type Source struct {
	svc *yt.Service
	// PageSize sets maxResults (1-100). Zero leaves the service default.
	PageSize int64
	// TextFormat is "html" or "plainText". Empty leaves the service default.
	TextFormat string
}

var _ fetch.PageSource = (*Source)(nil)

// New builds a Source authenticated with apiKey. Extra options are appended
// after the key, so tests can point the client at another endpoint.
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Source, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: empty api key", internalerr.ErrConfigMissing)
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Source{svc: svc}, nil
}

// ListPage fetches one page of threads, including replies.
func (s *Source) ListPage(ctx context.Context, videoID, pageToken string) (fetch.Page, error) {
	call := s.svc.CommentThreads.List(listParts).VideoId(videoID)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	if s.PageSize > 0 {
		call = call.MaxResults(s.PageSize)
	}
	if s.TextFormat != "" {
		call = call.TextFormat(s.TextFormat)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return fetch.Page{}, fmt.Errorf("commentThreads.list %s: %w", videoID, err)
	}
	return fetch.Page{
		Items:         resp.Items,
		NextPageToken: resp.NextPageToken,
	}, nil
}
