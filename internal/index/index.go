// Package index stores scan runs and their captures in SQLite.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/lexkit/internal/grammar"
	"github.com/zjrosen/lexkit/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	grammar     TEXT NOT NULL,
	file        TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	final_state TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS captures (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	state    TEXT NOT NULL,
	lexer    TEXT NOT NULL,
	text     TEXT NOT NULL,
	pos      INTEGER NOT NULL,
	line     INTEGER NOT NULL,
	col      INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_runs_file ON runs(file, created_at);
CREATE INDEX IF NOT EXISTS idx_captures_lexer ON captures(lexer);
`

// Index is a SQLite-backed capture store.
type Index struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one scan of one file.
type Run struct {
	ID        string
	File      string
	CreatedAt time.Time
	grammar.Report
}

// Entry is a stored capture with the run it came from.
type Entry struct {
	RunID string
	File  string
	grammar.Capture
}

// Filter narrows Captures. Zero fields match everything.
type Filter struct {
	File  string
	Lexer string
	Limit int
}

// NewDB opens (creating if needed) the index at path and applies the schema.
func NewDB(path string) (*Index, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	log.Debug(log.CatIndex, "Opening index", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		log.ErrorErr(log.CatIndex, "Failed to open index", err, "path", path)
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Index{db: db, now: time.Now}, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// RecordRun stores a run and its captures and returns the run id.
func (x *Index) RecordRun(ctx context.Context, file string, rep grammar.Report) (string, error) {
	id := uuid.NewString()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, grammar, file, steps, final_state, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, rep.Grammar, file, rep.Steps, rep.Final, x.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO captures (run_id, seq, state, lexer, text, pos, line, col) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare capture insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range rep.Captures {
		if _, err := stmt.ExecContext(ctx, id, i, c.State, c.Lexer, c.Text, c.Offset, c.Line, c.Column); err != nil {
			return "", fmt.Errorf("insert capture %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	log.Debug(log.CatIndex, "Recorded run", "id", id, "file", file, "captures", len(rep.Captures))
	return id, nil
}

// Captures lists stored captures, newest run first, in capture order within a run.
func (x *Index) Captures(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.File != "" {
		where = append(where, "r.file = ?")
		args = append(args, f.File)
	}
	if f.Lexer != "" {
		where = append(where, "c.lexer = ?")
		args = append(args, f.Lexer)
	}

	var q strings.Builder
	q.WriteString(`SELECT r.id, r.file, c.state, c.lexer, c.text, c.pos, c.line, c.col
		FROM captures c JOIN runs r ON r.id = c.run_id`)
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY r.created_at DESC, r.id, c.seq")
	if f.Limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := x.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.File, &e.State, &e.Lexer, &e.Text, &e.Offset, &e.Line, &e.Column); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs lists the most recent runs without their captures.
func (x *Index) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := x.db.QueryContext(ctx,
		`SELECT id, grammar, file, steps, final_state, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r  Run
			ns int64
		)
		if err := rows.Scan(&r.ID, &r.Grammar, &r.File, &r.Steps, &r.Final, &ns); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, ns)
		out = append(out, r)
	}
	return out, rows.Err()
}
