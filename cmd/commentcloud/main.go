package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/cognicore/commentcloud/internal/logging"
	"github.com/cognicore/commentcloud/pkg/commentcloud"
	"github.com/cognicore/commentcloud/pkg/commentcloud/config"
	"github.com/cognicore/commentcloud/pkg/commentcloud/fetch"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/render"
	"github.com/cognicore/commentcloud/pkg/commentcloud/stoplist"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store/sqlite"
	"github.com/cognicore/commentcloud/pkg/commentcloud/youtube"
)

const defaultConfigPath = "commentcloud.yaml"

// errUsage means the positional arguments were wrong; usage is printed and
// the program exits cleanly.
var errUsage = errors.New("usage")

type cliArgs struct {
	VideoURL   string
	MaxPages   *int
	ConfigPath string
	Mentions   []string
	LogLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string, stderr io.Writer) int {
	args, err := parseArgs(argv, stderr)
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "load config:", err)
		return 1
	}
	level := cfg.LogLevel
	if args.LogLevel != "" {
		level = args.LogLevel
	}
	logger := logging.New(stderr, level)

	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return 1
	}
	defer cleanup()

	res, err := engine.Run(ctx, commentcloud.Request{
		URL:      args.VideoURL,
		MaxPages: args.MaxPages,
		Mentions: args.Mentions,
	})
	if err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}
	logger.Info("done",
		"dir", res.Layout.Dir(),
		"comments", len(res.Run.Comments),
		"words", len(res.Run.Words))
	return 0
}

// parseArgs reads flags and the <video_url> [max_pages] positionals.
func parseArgs(argv []string, stderr io.Writer) (cliArgs, error) {
	flags := flag.NewFlagSet("commentcloud", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		configPath = flags.String("config", "", "YAML config file (default "+defaultConfigPath+" when present)")
		mentions   = flags.String("mentions", "", "Comma-separated keywords; matching comments go to mentions-<ts>.tsv")
		logLevel   = flags.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: commentcloud [flags] <video_url> [max_pages]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(argv); err != nil {
		return cliArgs{}, err
	}

	pos := flags.Args()
	if len(pos) < 1 || len(pos) > 2 {
		flags.Usage()
		return cliArgs{}, errUsage
	}

	args := cliArgs{
		VideoURL:   pos[0],
		ConfigPath: *configPath,
		Mentions:   splitKeywords(*mentions),
		LogLevel:   *logLevel,
	}
	if len(pos) == 2 {
		n, err := strconv.Atoi(pos[1])
		if err != nil {
			return cliArgs{}, fmt.Errorf("max_pages must be an integer: %q", pos[1])
		}
		args.MaxPages = fetch.MaxPages(n)
	}
	if args.ConfigPath == "" && fileExists(defaultConfigPath) {
		args.ConfigPath = defaultConfigPath
	}
	return args, nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// buildEngine wires the YouTube source, tokenizer, stop words, renderer and
// optional archive from cfg. Extra client options reach the YouTube client.
func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, clientOpts ...option.ClientOption) (*commentcloud.Engine, func(), error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, nil, err
	}
	src, err := youtube.New(ctx, apiKey, clientOpts...)
	if err != nil {
		return nil, nil, err
	}
	src.PageSize = cfg.YouTube.PageSize
	src.TextFormat = cfg.YouTube.TextFormat

	stopwords, err := config.LoadStopwords(cfg.StopwordsPath)
	if err != nil {
		return nil, nil, err
	}
	tok, err := ingest.NewKagome()
	if err != nil {
		return nil, nil, err
	}
	stops := stoplist.New(stopwords)
	logger.Debug("loaded stop words", "path", cfg.StopwordsPath, "count", stops.Len())
	agg := ingest.NewAggregator(tok, stops, cfg.Words.POSTags)

	bg, err := render.ParseHexColor(cfg.WordCloud.Background)
	if err != nil {
		return nil, nil, err
	}
	wc, err := render.NewWordCloud(render.Options{
		Width:           cfg.WordCloud.Width,
		Height:          cfg.WordCloud.Height,
		MaxWords:        cfg.WordCloud.MaxWords,
		RelativeScaling: cfg.WordCloud.RelativeScaling,
		MinFontSize:     cfg.WordCloud.MinFontSize,
		MaxFontSize:     cfg.WordCloud.MaxFontSize,
		Background:      bg,
		FontPath:        cfg.WordCloud.FontPath,
	})
	if err != nil {
		return nil, nil, err
	}

	var archive store.Store
	if cfg.ArchivePath != "" {
		archive, err = sqlite.OpenSQLite(ctx, cfg.ArchivePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		logger.Debug("archive enabled", "path", cfg.ArchivePath)
	}

	var limiter *rate.Limiter
	if rps := cfg.YouTube.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	engine := commentcloud.New(commentcloud.Options{
		Source:          src,
		Limiter:         limiter,
		Aggregator:      agg,
		Renderer:        wc,
		Archive:         archive,
		OutputDir:       cfg.OutputDir,
		MaxWords:        cfg.WordCloud.MaxWords,
		RelativeScaling: cfg.WordCloud.RelativeScaling,
		Logger:          logger,
	})
	cleanup := func() {
		if err := engine.Close(); err != nil {
			logger.Warn("close archive", "err", err)
		}
	}
	return engine, cleanup, nil
}
