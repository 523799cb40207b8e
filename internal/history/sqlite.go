package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens the store at dbPath. Use ":memory:" for an
// in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeError(err, "open sqlite database").WithContext("path", dbPath).Build()
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, storeError(err, "initialize schema").WithContext("path", dbPath).Build()
	}
	return store, nil
}

func storeError(err error, message string) *errors.ErrorBuilder {
	return errors.WrapError(err, errors.CategoryStore, message)
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		flagged INTEGER NOT NULL,
		parts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, started);
	CREATE TABLE IF NOT EXISTS candidates (
		project TEXT NOT NULL,
		part TEXT NOT NULL,
		tag TEXT NOT NULL,
		pinned TEXT NOT NULL,
		tag_date INTEGER NOT NULL,
		first_seen INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		PRIMARY KEY (project, part, tag)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun implements Store.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (id, project, started, finished, flagged, parts) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Project, run.Started.UnixMilli(), run.Finished.UnixMilli(), run.Flagged, run.Parts,
	)
	if err != nil {
		return storeError(err, "insert run").WithContext("run_id", run.ID).Build()
	}
	return nil
}

// Observe implements Store.
func (s *SQLiteStore) Observe(ctx context.Context, runID, project string, results []*checker.PartResult) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(err, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	seen := s.now()
	var fresh []Candidate
	for _, r := range results {
		if r == nil {
			continue
		}
		pinned := ""
		if r.Current != nil {
			pinned = r.Current.Name
		}
		for _, u := range r.Updates {
			res, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO candidates (project, part, tag, pinned, tag_date, first_seen, run_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
				project, r.Name, u.Name, pinned, unixMilli(u.Date), seen.UnixMilli(), runID,
			)
			if err != nil {
				return nil, storeError(err, "insert candidate").
					WithContext("part", r.Name).
					WithContext("tag", u.Name).
					Build()
			}
			if n, _ := res.RowsAffected(); n == 1 {
				fresh = append(fresh, Candidate{
					Project:   project,
					Part:      r.Name,
					Tag:       u.Name,
					Pinned:    pinned,
					TagDate:   u.Date,
					FirstSeen: time.UnixMilli(seen.UnixMilli()),
					RunID:     runID,
				})
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, storeError(err, "commit candidates").Build()
	}
	return fresh, nil
}

// Candidates implements Store.
func (s *SQLiteStore) Candidates(ctx context.Context, project, part string) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT project, part, tag, pinned, tag_date, first_seen, run_id FROM candidates
		 WHERE project = ? AND (? = '' OR part = ?)
		 ORDER BY tag_date DESC, tag`,
		project, part, part,
	)
	if err != nil {
		return nil, storeError(err, "query candidates").Build()
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			c                  Candidate
			tagDate, firstSeen int64
		)
		if err := rows.Scan(&c.Project, &c.Part, &c.Tag, &c.Pinned, &tagDate, &firstSeen, &c.RunID); err != nil {
			return nil, storeError(err, "scan candidate").Build()
		}
		c.TagDate = fromUnixMilli(tagDate)
		c.FirstSeen = time.UnixMilli(firstSeen)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate candidates").Build()
	}
	return out, nil
}

// Runs implements Store.
func (s *SQLiteStore) Runs(ctx context.Context, project string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project, started, finished, flagged, parts FROM runs WHERE project = ? ORDER BY started DESC LIMIT ?",
		project, limit,
	)
	if err != nil {
		return nil, storeError(err, "query runs").Build()
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.Project, &started, &finished, &r.Flagged, &r.Parts); err != nil {
			return nil, storeError(err, "scan run").Build()
		}
		r.Started = time.UnixMilli(started)
		r.Finished = time.UnixMilli(finished)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate runs").Build()
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Unknown dates are stored as 0.
func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

var _ Store = (*SQLiteStore)(nil)
