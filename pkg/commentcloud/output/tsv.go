package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// tsvReader reads the tab-separated records csv.Writer emits with Comma '\t'.
// Quoted fields are returned byte for byte, so an embedded "\r\n" survives
// where csv.Reader would fold it to "\n".
type tsvReader struct {
	r     *bufio.Reader
	line  int // current line
	start int // line the last record started on
}

func newTSVReader(r io.Reader) *tsvReader {
	return &tsvReader{r: bufio.NewReader(r)}
}

// Read returns the next record, or io.EOF after the last one. Blank lines
// are skipped.
func (t *tsvReader) Read() ([]string, error) {
	for {
		b, err := t.r.Peek(1)
		if err != nil {
			return nil, err
		}
		if b[0] != '\n' {
			break
		}
		_, _ = t.r.ReadByte()
		t.line++
	}
	t.line++
	t.start = t.line

	var rec []string
	for {
		field, end, err := t.readField()
		if err != nil {
			return nil, err
		}
		rec = append(rec, field)
		if end {
			return rec, nil
		}
	}
}

// readField reads one field and the delimiter after it. end reports whether
// the delimiter closed the record.
func (t *tsvReader) readField() (field string, end bool, err error) {
	b, err := t.r.ReadByte()
	if err == io.EOF {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	if b == '"' {
		return t.readQuoted()
	}

	var sb strings.Builder
	for {
		switch b {
		case '\t':
			return sb.String(), false, nil
		case '\n':
			return strings.TrimSuffix(sb.String(), "\r"), true, nil
		}
		sb.WriteByte(b)
		if b, err = t.r.ReadByte(); err == io.EOF {
			return sb.String(), true, nil
		} else if err != nil {
			return "", false, err
		}
	}
}

func (t *tsvReader) readQuoted() (string, bool, error) {
	var sb strings.Builder
	for {
		b, err := t.r.ReadByte()
		if err == io.EOF {
			return "", false, fmt.Errorf("line %d: unterminated quoted field", t.start)
		}
		if err != nil {
			return "", false, err
		}
		if b != '"' {
			if b == '\n' {
				t.line++
			}
			sb.WriteByte(b)
			continue
		}

		// closing quote, or the first half of an escaped one
		next, err := t.r.ReadByte()
		switch {
		case err == io.EOF:
			return sb.String(), true, nil
		case err != nil:
			return "", false, err
		case next == '"':
			sb.WriteByte('"')
		case next == '\t':
			return sb.String(), false, nil
		case next == '\n':
			return sb.String(), true, nil
		case next == '\r':
			if nl, err := t.r.ReadByte(); err == nil && nl == '\n' {
				return sb.String(), true, nil
			}
			return "", false, fmt.Errorf("line %d: stray carriage return after quoted field", t.line)
		default:
			return "", false, fmt.Errorf("line %d: unexpected %q after quoted field", t.line, next)
		}
	}
}
