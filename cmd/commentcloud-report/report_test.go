package main

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
	"github.com/cognicore/commentcloud/pkg/commentcloud/stoplist"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store/memstore"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store/sqlite"
)

type nounTokenizer struct{}

func (nounTokenizer) Tokenize(text string) iter.Seq[ingest.Token] {
	return func(yield func(ingest.Token) bool) {
		for _, w := range strings.Fields(text) {
			if !yield(ingest.Token{Surface: w, POS: []string{"名詞"}}) {
				return
			}
		}
	}
}

func TestBuildReport(t *testing.T) {
	entries := []freq.Entry{
		{Word: "歌", Count: 8},
		{Word: "声", Count: 3},
		{Word: "最高", Count: 1},
	}
	r := buildReport(10, entries, 2, 30)

	assert.Equal(t, int64(10), r.TotalComments)
	assert.Equal(t, 3, r.DistinctWords)
	require.Len(t, r.TopWords, 2)
	assert.Equal(t, "歌", r.TopWords[0].Word)
	assert.InDelta(t, 80.0, r.TopWords[0].DFPercent, 1e-9)

	require.Len(t, r.StopwordCandidates, 2)
	assert.Equal(t, "声", r.StopwordCandidates[1].Word)
}

func TestBuildReportEmpty(t *testing.T) {
	r := buildReport(0, nil, 20, 10)
	assert.Empty(t, r.TopWords)
	assert.Empty(t, r.StopwordCandidates)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, r))
	assert.Contains(t, buf.String(), `"top_words": []`)
}

func TestRecount(t *testing.T) {
	comments := []flatten.Comment{
		{ID: "a", RawText: "歌 歌 声"},
		{ID: "b", RawText: "歌 こと"},
		{ID: "c", RawText: "声"},
	}
	agg := ingest.NewAggregator(nounTokenizer{}, stoplist.New([]string{"こと"}), nil)

	r := recount(comments, agg, 0, 60)
	assert.Equal(t, int64(3), r.TotalComments)
	require.Len(t, r.TopWords, 2)
	assert.Equal(t, wordEntry{Word: "歌", Count: 2, DFPercent: 200.0 / 3}, r.TopWords[0])
	assert.Len(t, r.StopwordCandidates, 2)
}

func TestArchivedReports(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	defer st.Close()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-b", "run-a"} {
		require.NoError(t, st.SaveRun(ctx, store.Run{
			ID:        id,
			VideoID:   "vid",
			Timestamp: "ts",
			StartedAt: start.Add(time.Duration(-i) * time.Hour),
			Pages:     1,
			Threads:   2,
			Comments:  []flatten.Comment{{ID: "c1"}, {ID: "c2"}},
			Words:     []freq.Entry{{Word: "歌", Count: 2}},
		}))
	}

	runs, err := listRuns(ctx, st, "vid")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)

	r, err := runReport(ctx, st, "run-b", 10, 50)
	require.NoError(t, err)
	assert.Equal(t, "run-b", r.RunID)
	assert.Equal(t, int64(2), r.TotalComments)
	require.Len(t, r.StopwordCandidates, 1)

	_, err = runReport(ctx, st, "missing", 10, 50)
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, runs))
	var decoded []runEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestOpenArchive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	missing := filepath.Join(dir, "typo.db")
	_, err := openArchive(ctx, missing)
	assert.ErrorIs(t, err, internalerr.ErrConfigMissing)
	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "a missing archive must not be created")

	path := filepath.Join(dir, "runs.db")
	st, err := sqlite.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, st.SaveRun(ctx, store.Run{ID: "r1", VideoID: "vid", StartedAt: time.Now()}))
	require.NoError(t, st.Close())

	runs, err := archivedRuns(ctx, path, "vid")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}
