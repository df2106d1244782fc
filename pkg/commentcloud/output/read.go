package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	yt "google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
)

// ReadCommentsTSV reads a comment table back. Columns outside Columns are
// ignored; ProfileImageURL is not stored and stays empty.
func ReadCommentsTSV(path string) ([]flatten.Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := newTSVReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	var comments []flatten.Comment
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line := r.start
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s:%d: %d fields, header has %d", path, line, len(rec), len(header))
		}
		likes, err := strconv.ParseInt(rec[idx["likes"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: likes: %w", path, line, err)
		}
		replies, err := strconv.ParseInt(rec[idx["num_replies"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: num_replies: %w", path, line, err)
		}
		comments = append(comments, flatten.Comment{
			ID:          rec[idx["id"]],
			Author:      rec[idx["author"]],
			Text:        rec[idx["text"]],
			RawText:     rec[idx["raw_text"]],
			Likes:       likes,
			PublishedAt: rec[idx["published_at"]],
			UpdatedAt:   rec[idx["updated_at"]],
			NumReplies:  replies,
		})
	}
	return comments, nil
}

// ReadThreadsJSONL loads raw thread items written by WriteThreadsJSONL.
func ReadThreadsJSONL(path string) ([]*yt.CommentThread, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var items []*yt.CommentThread
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var item yt.CommentThread
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		items = append(items, &item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return items, nil
}
