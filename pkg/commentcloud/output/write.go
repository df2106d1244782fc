package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"

	yt "google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
)

// Columns is the fixed column order of the comment table.
var Columns = []string{
	"id",
	"author",
	"text",
	"raw_text",
	"likes",
	"published_at",
	"updated_at",
	"num_replies",
}

// writeFile creates path, hands a buffered writer to fn and always closes
// the file. The first error wins.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// WriteThreadsJSONL writes one raw thread item per line.
func WriteThreadsJSONL(path string, items []*yt.CommentThread) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCommentsTSV writes a header and one row per comment in Columns order.
func WriteCommentsTSV(path string, comments []flatten.Comment) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		if err := cw.Write(Columns); err != nil {
			return err
		}
		for _, c := range comments {
			if err := cw.Write(row(c)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func row(c flatten.Comment) []string {
	return []string{
		c.ID,
		c.Author,
		c.Text,
		c.RawText,
		strconv.FormatInt(c.Likes, 10),
		c.PublishedAt,
		c.UpdatedAt,
		strconv.FormatInt(c.NumReplies, 10),
	}
}

// WriteWords writes "word count" lines, most frequent first.
func WriteWords(path string, table *freq.Table) error {
	return writeFile(path, func(w io.Writer) error {
		for _, e := range table.MostCommon() {
			if _, err := fmt.Fprintf(w, "%s %d\n", e.Word, e.Count); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteImage encodes img as PNG.
func WriteImage(path string, img image.Image) error {
	if img == nil {
		return errors.New("nil image")
	}
	return writeFile(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}
