package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
)

type report struct {
	RunID              string      `json:"run_id,omitempty"`
	VideoID            string      `json:"video_id,omitempty"`
	TotalComments      int64       `json:"total_comments"`
	DistinctWords      int         `json:"distinct_words"`
	TopWords           []wordEntry `json:"top_words"`
	StopwordCandidates []wordEntry `json:"stopword_candidates"`
}

type wordEntry struct {
	Word      string  `json:"word"`
	Count     int64   `json:"count"`
	DFPercent float64 `json:"df_percent"`
}

type runEntry struct {
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	StartedAt time.Time `json:"started_at"`
	Pages     int       `json:"pages"`
	Threads   int       `json:"threads"`
}

// recount counts the words of comments again, as the fetch run would.
func recount(comments []flatten.Comment, agg *ingest.Aggregator, top int, minDF float64) report {
	table := agg.Count(comments)
	return buildReport(table.TotalDocs(), table.MostCommon(), top, minDF)
}

func runReport(ctx context.Context, st store.Store, id string, top int, minDF float64) (report, error) {
	run, ok, err := st.GetRun(ctx, id)
	if err != nil {
		return report{}, err
	}
	if !ok {
		return report{}, fmt.Errorf("run %s not found", id)
	}
	r := buildReport(int64(len(run.Comments)), run.Words, top, minDF)
	r.RunID = run.ID
	r.VideoID = run.VideoID
	return r, nil
}

func listRuns(ctx context.Context, st store.Store, videoID string) ([]runEntry, error) {
	runs, err := st.ListRuns(ctx, videoID)
	if err != nil {
		return nil, err
	}
	out := make([]runEntry, 0, len(runs))
	for _, r := range runs {
		out = append(out, runEntry{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			StartedAt: r.StartedAt,
			Pages:     r.Pages,
			Threads:   r.Threads,
		})
	}
	return out, nil
}

// buildReport takes entries most common first. Words found in at least minDF
// percent of the comments are listed as stop-word candidates.
func buildReport(total int64, entries []freq.Entry, top int, minDF float64) report {
	r := report{
		TotalComments:      total,
		DistinctWords:      len(entries),
		TopWords:           []wordEntry{},
		StopwordCandidates: []wordEntry{},
	}
	for i, e := range entries {
		we := wordEntry{Word: e.Word, Count: e.Count, DFPercent: dfPercent(e.Count, total)}
		if top <= 0 || i < top {
			r.TopWords = append(r.TopWords, we)
		}
		if total > 0 && we.DFPercent >= minDF {
			r.StopwordCandidates = append(r.StopwordCandidates, we)
		}
	}
	return r
}

func dfPercent(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}
