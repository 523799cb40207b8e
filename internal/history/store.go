// Package history remembers which update candidates have been reported,
// so repeated runs only announce new ones.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
)

// Run is one recorded check run.
type Run struct {
	ID       string
	Project  string
	Started  time.Time
	Finished time.Time
	Flagged  bool
	Parts    int
}

// Candidate is an update candidate first seen in a run.
type Candidate struct {
	Project   string
	Part      string
	Tag       string
	Pinned    string
	TagDate   time.Time
	FirstSeen time.Time
	RunID     string
}

// Store persists runs and candidates.
type Store interface {
	// RecordRun stores run metadata.
	RecordRun(ctx context.Context, run Run) error
	// Observe records the updates in results and returns the candidates
	// that were not seen before.
	Observe(ctx context.Context, runID, project string, results []*checker.PartResult) ([]Candidate, error)
	// Candidates lists the known candidates of a project part, newest tag
	// date first. An empty part lists every part.
	Candidates(ctx context.Context, project, part string) ([]Candidate, error)
	// Runs lists the most recent runs of a project, newest first.
	Runs(ctx context.Context, project string, limit int) ([]Run, error)
	Close() error
}
