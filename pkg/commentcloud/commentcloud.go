// Package commentcloud fetches the comments of a video, counts the words
// people use and renders them as a word cloud.
package commentcloud

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/cognicore/commentcloud/internal/logging"
	"github.com/cognicore/commentcloud/pkg/commentcloud/fetch"
	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/output"
	"github.com/cognicore/commentcloud/pkg/commentcloud/render"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
	"github.com/cognicore/commentcloud/pkg/commentcloud/videourl"
)

// Engine runs the whole fetch → flatten → count → write flow for one video.
// It is not safe for concurrent use.
type Engine struct {
	source     fetch.PageSource
	limiter    *rate.Limiter
	aggregator *ingest.Aggregator
	renderer   render.Renderer
	archive    store.Store
	outputDir  string
	maxWords   int
	scaling    float64
	logger     *slog.Logger
	entropy    *ulid.MonotonicEntropy
}

// Options configures an Engine
type Options struct {
	Source fetch.PageSource
	// Limiter paces page requests; nil means no pacing.
	Limiter    *rate.Limiter
	Aggregator *ingest.Aggregator
	Renderer   render.Renderer
	// Archive is optional; nil skips archiving.
	Archive   store.Store
	OutputDir string
	// MaxWords and RelativeScaling shape the word cloud input.
	MaxWords        int
	RelativeScaling float64
	Logger          *slog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	dir := opts.OutputDir
	if dir == "" {
		dir = "data"
	}
	return &Engine{
		source:     opts.Source,
		limiter:    opts.Limiter,
		aggregator: opts.Aggregator,
		renderer:   opts.Renderer,
		archive:    opts.Archive,
		outputDir:  dir,
		maxWords:   opts.MaxWords,
		scaling:    opts.RelativeScaling,
		logger:     logging.OrDefault(opts.Logger),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Close releases the archive, if any.
func (e *Engine) Close() error {
	if e.archive == nil {
		return nil
	}
	return e.archive.Close()
}

// Request describes one run.
type Request struct {
	URL string
	// MaxPages bounds the fetch; nil means every page.
	MaxPages *int
	// Mentions, when non-empty, also writes the comments mentioning any keyword.
	Mentions []string
	// Now is the run time; zero means time.Now().
	Now time.Time
}

// Result reports what a run produced.
type Result struct {
	Run      store.Run
	Layout   output.Layout
	Mentions int
}

// Run executes one full pass. Artifacts written before a failure stay on disk.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	videoID, err := videourl.ResolveID(req.URL)
	if err != nil {
		return Result{}, err
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	layout := output.NewLayout(e.outputDir, videoID, now)
	run := store.Run{
		ID:        e.newID(now),
		VideoID:   videoID,
		Timestamp: layout.Timestamp,
		StartedAt: now,
	}
	log := e.logger.With("run_id", run.ID, "video_id", videoID)

	if err := layout.Ensure(); err != nil {
		return Result{}, err
	}
	log.Info("saving run", "dir", layout.Dir(), "max_pages", describeMax(req.MaxPages))

	fetcher := fetch.Fetcher{Source: e.source, MaxPages: req.MaxPages, Limiter: e.limiter, Logger: log}
	fetched, err := fetcher.Fetch(ctx, videoID)
	if err != nil {
		return Result{}, err
	}
	run.Pages = fetched.Pages
	run.Threads = len(fetched.Items)

	comments, err := flatten.Flatten(fetched.Items)
	if err != nil {
		return Result{}, err
	}
	run.Comments = comments

	table := e.aggregator.Count(comments)
	run.Words = table.MostCommon()
	log.Info("counted words", "comments", len(comments), "distinct_words", table.Len())

	res := Result{Run: run, Layout: layout}

	log.Info("saving words", "path", layout.Words())
	if err := output.WriteWords(layout.Words(), table); err != nil {
		return res, err
	}

	img, err := e.renderer.Render(render.Weights(table.Top(e.maxWords), e.maxWords, e.scaling))
	if err != nil {
		return res, fmt.Errorf("render word cloud: %w", err)
	}
	log.Info("saving word cloud", "path", layout.WordCloud())
	if err := output.WriteImage(layout.WordCloud(), img); err != nil {
		return res, err
	}

	log.Info("saving comments", "path", layout.CommentsJSONL())
	if err := output.WriteThreadsJSONL(layout.CommentsJSONL(), fetched.Items); err != nil {
		return res, err
	}
	log.Info("saving comments", "path", layout.CommentsTSV())
	if err := output.WriteCommentsTSV(layout.CommentsTSV(), comments); err != nil {
		return res, err
	}

	if len(req.Mentions) > 0 {
		mentioned := flatten.Mentions(comments, req.Mentions)
		res.Mentions = len(mentioned)
		log.Info("saving mentions", "path", layout.Mentions(), "matches", len(mentioned))
		if err := output.WriteCommentsTSV(layout.Mentions(), mentioned); err != nil {
			return res, err
		}
	}

	if e.archive != nil {
		if err := e.archive.SaveRun(ctx, run); err != nil {
			return res, fmt.Errorf("archive run: %w", err)
		}
		log.Info("archived run")
	}

	return res, nil
}

func (e *Engine) newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), e.entropy).String()
}

func describeMax(n *int) string {
	if n == nil {
		return "unbounded"
	}
	return fmt.Sprint(*n)
}
