// Package output writes the artifacts of one run to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is ISO-8601 with microseconds and a numeric local offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// FormatTimestamp renders t in the local zone with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Layout names every artifact of one run. All names share one timestamp.
type Layout struct {
	Root      string
	VideoID   string
	Timestamp string
}

// NewLayout captures the run timestamp from now.
func NewLayout(root, videoID string, now time.Time) Layout {
	return Layout{Root: root, VideoID: videoID, Timestamp: FormatTimestamp(now)}
}

// Dir is <root>/<video id>.
func (l Layout) Dir() string {
	return filepath.Join(l.Root, l.VideoID)
}

// Ensure creates Dir and its parents. Existing directories are fine.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Dir(), 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", l.Dir(), err)
	}
	return nil
}

func (l Layout) name(prefix, ext string) string {
	return filepath.Join(l.Dir(), prefix+"-"+l.Timestamp+ext)
}

// CommentsTSV is the flattened comment table.
func (l Layout) CommentsTSV() string { return l.name("comments", ".tsv") }

// CommentsJSONL holds the raw thread items.
func (l Layout) CommentsJSONL() string { return l.name("comments", ".jsonl") }

// Words is the frequency listing.
func (l Layout) Words() string { return l.name("words", ".txt") }

// WordCloud is the rendered image.
func (l Layout) WordCloud() string { return l.name("word-cloud", ".png") }

// Mentions is the keyword-filtered comment table.
func (l Layout) Mentions() string { return l.name("mentions", ".tsv") }
