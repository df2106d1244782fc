// Command commentcloud-report inspects finished runs: it lists archived runs,
// reports the words of one run, or recounts a saved comment table.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/commentcloud/internal/logging"
	"github.com/cognicore/commentcloud/pkg/commentcloud/config"
	"github.com/cognicore/commentcloud/pkg/commentcloud/ingest"
	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
	"github.com/cognicore/commentcloud/pkg/commentcloud/output"
	"github.com/cognicore/commentcloud/pkg/commentcloud/stoplist"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store/sqlite"
)

func main() {
	var (
		archivePath = flag.String("archive", "", "Run archive database")
		videoID     = flag.String("video", "", "List archived runs of this video")
		runID       = flag.String("run", "", "Report the words of this archived run")
		input       = flag.String("input", "", "Recount a saved comments-<ts>.tsv instead of reading the archive")
		stopPath    = flag.String("stopwords", "", "Stop-word file used when recounting (optional)")
		top         = flag.Int("top", 20, "Number of words to report")
		minDF       = flag.Float64("min-df", 20, "Percent of comments a word must reach to be a stop-word candidate")
		logLevel    = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logger := logging.New(os.Stderr, *logLevel)
	ctx := context.Background()

	var (
		v   any
		err error
	)
	switch {
	case *input != "":
		v, err = recountFile(*input, *stopPath, *top, *minDF)
	case *archivePath == "":
		err = errors.New("--archive or --input required")
	case *runID != "":
		v, err = archivedRun(ctx, *archivePath, *runID, *top, *minDF)
	case *videoID != "":
		v, err = archivedRuns(ctx, *archivePath, *videoID)
	default:
		err = errors.New("--run or --video required with --archive")
	}
	if err != nil {
		logger.Error("report failed", "err", err)
		os.Exit(1)
	}

	if err := writeJSON(os.Stdout, v); err != nil {
		logger.Error("write report", "err", err)
		os.Exit(1)
	}
}

func recountFile(path, stopPath string, top int, minDF float64) (report, error) {
	comments, err := output.ReadCommentsTSV(path)
	if err != nil {
		return report{}, err
	}
	var stops []string
	if stopPath != "" {
		if stops, err = config.LoadStopwords(stopPath); err != nil {
			return report{}, err
		}
	}
	tok, err := ingest.NewKagome()
	if err != nil {
		return report{}, err
	}
	agg := ingest.NewAggregator(tok, stoplist.New(stops), nil)
	return recount(comments, agg, top, minDF), nil
}

func archivedRun(ctx context.Context, dbPath, id string, top int, minDF float64) (report, error) {
	st, err := openArchive(ctx, dbPath)
	if err != nil {
		return report{}, err
	}
	defer st.Close()
	return runReport(ctx, st, id, top, minDF)
}

func archivedRuns(ctx context.Context, dbPath, videoID string) ([]runEntry, error) {
	st, err := openArchive(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return listRuns(ctx, st, videoID)
}

// openArchive opens an existing archive. A missing file is an error rather
// than a new empty database.
func openArchive(ctx context.Context, path string) (store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: archive %s: %v", internalerr.ErrConfigMissing, path, err)
	}
	return sqlite.OpenSQLite(ctx, path)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
