package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
	"github.com/cognicore/commentcloud/pkg/commentcloud/store"
)

// timeLayout is fixed width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// insertChunk keeps multi-row inserts well under SQLite's variable limit.
const insertChunk = 500

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite archive with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	video_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	started_at TEXT NOT NULL,
	pages INTEGER NOT NULL,
	threads INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_video ON runs(video_id, started_at);

CREATE TABLE IF NOT EXISTS comments (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	id TEXT NOT NULL,
	author TEXT,
	profile_image_url TEXT,
	text TEXT,
	raw_text TEXT,
	likes INTEGER NOT NULL,
	published_at TEXT,
	updated_at TEXT,
	num_replies INTEGER NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS word_counts (
	run_id TEXT NOT NULL,
	rank INTEGER NOT NULL,
	word TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, rank),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the run and its records in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = sq.Insert("runs").
		Columns("id", "video_id", "timestamp", "started_at", "pages", "threads").
		Values(r.ID, r.VideoID, r.Timestamp, r.StartedAt.UTC().Format(timeLayout), r.Pages, r.Threads).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}

	for start := 0; start < len(r.Comments); start += insertChunk {
		end := min(start+insertChunk, len(r.Comments))
		q := sq.Insert("comments").Columns(
			"run_id", "seq", "id", "author", "profile_image_url", "text",
			"raw_text", "likes", "published_at", "updated_at", "num_replies",
		)
		for i, c := range r.Comments[start:end] {
			q = q.Values(r.ID, start+i, c.ID, c.Author, c.ProfileImageURL, c.Text,
				c.RawText, c.Likes, c.PublishedAt, c.UpdatedAt, c.NumReplies)
		}
		if _, err = q.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert comments: %w", err)
		}
	}

	for start := 0; start < len(r.Words); start += insertChunk {
		end := min(start+insertChunk, len(r.Words))
		q := sq.Insert("word_counts").Columns("run_id", "rank", "word", "count")
		for i, w := range r.Words[start:end] {
			q = q.Values(r.ID, start+i+1, w.Word, w.Count)
		}
		if _, err = q.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert word counts: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun loads a run with its comments and word counts.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := sq.Select("id", "video_id", "timestamp", "started_at", "pages", "threads").
		From("runs").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)

	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, fmt.Errorf("get run %s: %w", id, err)
	}

	run := store.Run{
		ID:        sum.ID,
		VideoID:   sum.VideoID,
		Timestamp: sum.Timestamp,
		StartedAt: sum.StartedAt,
		Pages:     sum.Pages,
		Threads:   sum.Threads,
	}
	if run.Comments, err = s.comments(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	if run.Words, err = s.words(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	return run, true, nil
}

// ListRuns returns the runs of one video, oldest first.
func (s *sqliteStore) ListRuns(ctx context.Context, videoID string) ([]store.RunSummary, error) {
	rows, err := sq.Select("id", "video_id", "timestamp", "started_at", "pages", "threads").
		From("runs").
		Where(sq.Eq{"video_id": videoID}).
		OrderBy("started_at", "id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (store.RunSummary, error) {
	var (
		sum     store.RunSummary
		started string
	)
	if err := row.Scan(&sum.ID, &sum.VideoID, &sum.Timestamp, &started, &sum.Pages, &sum.Threads); err != nil {
		return store.RunSummary{}, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return store.RunSummary{}, fmt.Errorf("started_at %q: %w", started, err)
	}
	sum.StartedAt = t
	return sum, nil
}

func (s *sqliteStore) comments(ctx context.Context, runID string) ([]flatten.Comment, error) {
	rows, err := sq.Select(
		"id", "author", "profile_image_url", "text", "raw_text",
		"likes", "published_at", "updated_at", "num_replies",
	).
		From("comments").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("seq").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []flatten.Comment
	for rows.Next() {
		var c flatten.Comment
		if err := rows.Scan(&c.ID, &c.Author, &c.ProfileImageURL, &c.Text, &c.RawText,
			&c.Likes, &c.PublishedAt, &c.UpdatedAt, &c.NumReplies); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) words(ctx context.Context, runID string) ([]freq.Entry, error) {
	rows, err := sq.Select("word", "count").
		From("word_counts").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("rank").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query word counts: %w", err)
	}
	defer rows.Close()

	var out []freq.Entry
	for rows.Next() {
		var e freq.Entry
		if err := rows.Scan(&e.Word, &e.Count); err != nil {
			return nil, fmt.Errorf("scan word count: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
