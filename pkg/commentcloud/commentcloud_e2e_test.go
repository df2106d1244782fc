package commentcloud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/fetch"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
	"github.com/cognicore/commentcloud/pkg/commentcloud/output"
	"github.com/cognicore/commentcloud/pkg/commentcloud/render"
	"github.com/cognicore/commentcloud/pkg/commentcloud/stoplist"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store/memstore"
)

const videoURL = "https://www.youtube.com/watch?v=e2eVideo"

// mockSource serves a fixed list of pages keyed by the incoming token.
type mockSource struct {
	pages map[string]fetch.Page
	calls int
	err   error
}

func (m *mockSource) ListPage(ctx context.Context, videoID, pageToken string) (fetch.Page, error) {
	m.calls++
	if m.err != nil {
		return fetch.Page{}, m.err
	}
	p, ok := m.pages[pageToken]
	if !ok {
		return fetch.Page{}, fmt.Errorf("unknown token %q", pageToken)
	}
	return p, nil
}

// spaceTokenizer tags every whitespace-separated word as a noun.
type spaceTokenizer struct{}

func (spaceTokenizer) Tokenize(text string) iter.Seq[ingest.Token] {
	return func(yield func(ingest.Token) bool) {
		for _, w := range strings.Fields(text) {
			if !yield(ingest.Token{Surface: w, POS: []string{"名詞"}}) {
				return
			}
		}
	}
}

// recordingRenderer keeps the words it was asked to draw.
type recordingRenderer struct {
	words map[string]int
}

func (r *recordingRenderer) Render(words map[string]int) (image.Image, error) {
	r.words = words
	return render.Blank(render.Options{Width: 64, Height: 32}), nil
}

func snippet(text string) *yt.CommentSnippet {
	return &yt.CommentSnippet{
		AuthorDisplayName: "viewer",
		TextDisplay:       text,
		TextOriginal:      text,
		PublishedAt:       "2024-05-01T10:00:00Z",
		UpdatedAt:         "2024-05-01T10:00:00Z",
	}
}

func thread(id, text string, replies ...string) *yt.CommentThread {
	th := &yt.CommentThread{
		Id: id,
		Snippet: &yt.CommentThreadSnippet{
			TopLevelComment: &yt.Comment{Id: id, Snippet: snippet(text)},
			TotalReplyCount: int64(len(replies)),
		},
	}
	if len(replies) > 0 {
		th.Replies = &yt.CommentThreadReplies{}
		for i, r := range replies {
			th.Replies.Comments = append(th.Replies.Comments, &yt.Comment{
				Id:      fmt.Sprintf("%s.r%d", id, i+1),
				Snippet: snippet(r),
			})
		}
	}
	return th
}

// manyWords returns n distinct filler words.
func manyWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word" + strings.Repeat("x", i%7) + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	return strings.Join(words, " ")
}

func twoPageSource() *mockSource {
	return &mockSource{pages: map[string]fetch.Page{
		"": {
			Items: []*yt.CommentThread{
				thread("t1", "歌 歌 歌 こと 声", "歌 最高", "同意 こと"),
				thread("t2", "ダンス 最高 "+manyWords(80)),
			},
			NextPageToken: "page2",
		},
		"page2": {
			Items: []*yt.CommentThread{
				thread("t3", "歌 ダンス 2024年", "声"),
			},
		},
	}}
}

func newTestEngine(t *testing.T, src fetch.PageSource, rr *recordingRenderer) (*Engine, *memstore.Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	archive := memstore.New()
	e := New(Options{
		Source:          src,
		Aggregator:      ingest.NewAggregator(spaceTokenizer{}, stoplist.New([]string{"こと", "同意"}), nil),
		Renderer:        rr,
		Archive:         archive,
		OutputDir:       dir,
		MaxWords:        64,
		RelativeScaling: 0.8,
	})
	return e, archive, dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// TestEndToEnd runs two mocked pages through every stage:
// fetch, flatten, count, render and write.
func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	src := twoPageSource()
	rr := &recordingRenderer{}
	e, archive, dir := newTestEngine(t, src, rr)
	defer e.Close()

	now := time.Date(2024, 5, 1, 21, 0, 0, 0, time.FixedZone("JST", 9*3600))
	res, err := e.Run(ctx, Request{URL: videoURL, Mentions: []string{"ダンス"}, Now: now})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// === Fetch ===
	if src.calls != 2 {
		t.Errorf("expected 2 page requests, got %d", src.calls)
	}
	if res.Run.Pages != 2 || res.Run.Threads != 3 {
		t.Errorf("run pages=%d threads=%d, want 2 and 3", res.Run.Pages, res.Run.Threads)
	}

	// === Flatten ===
	var ids []string
	topLevel := 0
	for _, c := range res.Run.Comments {
		ids = append(ids, c.ID)
		if !strings.Contains(c.ID, ".") {
			topLevel++
		}
	}
	if topLevel != 3 {
		t.Errorf("expected 3 top-level comments, got %d (%v)", topLevel, ids)
	}
	wantIDs := "t1 t1.r1 t1.r2 t2 t3 t3.r1"
	if strings.Join(ids, " ") != wantIDs {
		t.Errorf("comment order = %v, want %s", ids, wantIDs)
	}

	// === Files share one timestamp ===
	l := res.Layout
	if l.Dir() != filepath.Join(dir, "e2eVideo") {
		t.Errorf("output dir = %s", l.Dir())
	}
	for _, path := range []string{l.CommentsTSV(), l.CommentsJSONL(), l.Words(), l.WordCloud(), l.Mentions()} {
		if !strings.Contains(filepath.Base(path), output.FormatTimestamp(now)) {
			t.Errorf("%s does not carry the run timestamp", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}

	// === Words ===
	lines := readLines(t, l.Words())
	if len(lines) == 0 || lines[0] != "歌 3" {
		t.Fatalf("first word line = %v, want '歌 3'", lines[:min(3, len(lines))])
	}
	for _, line := range lines {
		word := strings.Fields(line)[0]
		if word == "こと" || word == "同意" {
			t.Errorf("stop word %q in frequency file", word)
		}
		if word == "2024年" {
			t.Errorf("non-alphabetic word %q in frequency file", word)
		}
	}

	// === Word cloud ===
	if len(rr.words) == 0 || len(rr.words) > 64 {
		t.Errorf("renderer got %d words, want 1..64", len(rr.words))
	}
	if _, ok := rr.words["歌"]; !ok {
		t.Error("most common word missing from the cloud")
	}

	// === Tables ===
	tsv, err := output.ReadCommentsTSV(l.CommentsTSV())
	if err != nil {
		t.Fatalf("ReadCommentsTSV: %v", err)
	}
	if len(tsv) != 6 || tsv[0].NumReplies != 2 || tsv[1].NumReplies != 0 {
		t.Errorf("comment table = %+v", tsv)
	}
	raw, err := output.ReadThreadsJSONL(l.CommentsJSONL())
	if err != nil {
		t.Fatalf("ReadThreadsJSONL: %v", err)
	}
	if len(raw) != 3 {
		t.Errorf("expected 3 raw thread lines, got %d", len(raw))
	}
	mentions, err := output.ReadCommentsTSV(l.Mentions())
	if err != nil {
		t.Fatalf("read mentions: %v", err)
	}
	if res.Mentions != 2 || len(mentions) != 2 || mentions[0].ID != "t2" || mentions[1].ID != "t3" {
		t.Errorf("mentions = %+v", mentions)
	}

	// === Archive ===
	archived, ok, err := archive.GetRun(ctx, res.Run.ID)
	if err != nil || !ok {
		t.Fatalf("run not archived: ok=%v err=%v", ok, err)
	}
	if len(archived.Comments) != 6 || archived.Words[0].Word != "歌" {
		t.Errorf("archived run = %+v", archived.Summary())
	}
}

func TestRunMaxPagesBound(t *testing.T) {
	src := twoPageSource()
	e, _, _ := newTestEngine(t, src, &recordingRenderer{})

	res, err := e.Run(context.Background(), Request{URL: videoURL, MaxPages: fetch.MaxPages(1)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.calls != 1 || res.Run.Threads != 2 {
		t.Errorf("calls=%d threads=%d, want 1 and 2", src.calls, res.Run.Threads)
	}
}

func TestRunZeroPagesWritesEmptyArtifacts(t *testing.T) {
	src := twoPageSource()
	rr := &recordingRenderer{}
	e, _, _ := newTestEngine(t, src, rr)

	res, err := e.Run(context.Background(), Request{URL: videoURL, MaxPages: fetch.MaxPages(0)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.calls != 0 {
		t.Errorf("expected no requests, got %d", src.calls)
	}
	if len(res.Run.Comments) != 0 || len(rr.words) != 0 {
		t.Errorf("expected empty run, got %d comments and %d words", len(res.Run.Comments), len(rr.words))
	}
	if lines := readLines(t, res.Layout.Words()); len(lines) != 0 {
		t.Errorf("expected empty words file, got %v", lines)
	}
}

func TestRunInvalidURLDoesNoWork(t *testing.T) {
	src := twoPageSource()
	e, _, dir := newTestEngine(t, src, &recordingRenderer{})

	_, err := e.Run(context.Background(), Request{URL: "https://example.com/watch?v=x"})
	if !errors.Is(err, internalerr.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("expected no requests, got %d", src.calls)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("output dir should not be created, stat err = %v", err)
	}
}

func TestRunFetchFailure(t *testing.T) {
	src := &mockSource{err: errors.New("forbidden: quotaExceeded")}
	e, archive, _ := newTestEngine(t, src, &recordingRenderer{})

	_, err := e.Run(context.Background(), Request{URL: videoURL})
	if !errors.Is(err, internalerr.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quotaExceeded") {
		t.Errorf("cause should be kept, got %v", err)
	}
	runs, _ := archive.ListRuns(context.Background(), "e2eVideo")
	if len(runs) != 0 {
		t.Errorf("failed run must not be archived, got %d", len(runs))
	}
}

func TestRunMalformedComment(t *testing.T) {
	bad := thread("t9", "歌")
	bad.Snippet.TopLevelComment.Snippet = nil
	src := &mockSource{pages: map[string]fetch.Page{
		"": {Items: []*yt.CommentThread{thread("t1", "歌"), bad}},
	}}
	e, _, _ := newTestEngine(t, src, &recordingRenderer{})

	res, err := e.Run(context.Background(), Request{URL: videoURL})
	if !errors.Is(err, internalerr.ErrMalformedComment) {
		t.Fatalf("expected ErrMalformedComment, got %v", err)
	}
	if len(res.Run.Comments) != 0 {
		t.Errorf("no partial records expected, got %d", len(res.Run.Comments))
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	e, _, _ := newTestEngine(t, twoPageSource(), &recordingRenderer{})
	now := time.Now()
	a, b := e.newID(now), e.newID(now)
	if a == b {
		t.Errorf("run IDs should differ, both %s", a)
	}
}
