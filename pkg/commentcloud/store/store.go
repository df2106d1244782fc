package store

import (
	"context"
	"time"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
)

// Store archives finished runs. Runs are written once and never merged.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, videoID string) ([]RunSummary, error)
}

// Run is everything one invocation produced.
type Run struct {
	ID        string
	VideoID   string
	Timestamp string // the timestamp embedded in artifact names
	StartedAt time.Time
	Pages     int
	Threads   int
	Comments  []flatten.Comment
	Words     []freq.Entry // most common first
}

// RunSummary is a run without its records.
type RunSummary struct {
	ID        string
	VideoID   string
	Timestamp string
	StartedAt time.Time
	Pages     int
	Threads   int
}

// Summary drops the records of r.
func (r Run) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		VideoID:   r.VideoID,
		Timestamp: r.Timestamp,
		StartedAt: r.StartedAt,
		Pages:     r.Pages,
		Threads:   r.Threads,
	}
}
