// Package runner runs one check of a snapcraft project end to end: it
// loads the file, checks its parts, records new candidates and announces
// them.
package runner

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/updatesnap/internal/checker"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/history"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/notify"
	"git.home.luguber.info/inful/updatesnap/internal/snapcraft"
)

// RawFetcher downloads a file over HTTP. *forge.BaseForge implements it.
type RawFetcher interface {
	GetRaw(ctx context.Context, rawURL string) ([]byte, error)
}

// Options configures a Runner. Only Lister is required.
type Options struct {
	Lister      checker.Lister
	Fetcher     RawFetcher
	History     history.Store
	Publisher   notify.Publisher
	Recorder    metrics.Recorder
	Logger      *slog.Logger
	Diagnostics checker.DiagnosticFunc
}

// Runner executes checks.
type Runner struct {
	opts  Options
	newID func() string
	now   func() time.Time
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Publisher == nil {
		opts.Publisher = notify.Noop{}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{opts: opts, newID: uuid.NewString, now: time.Now}
}

// Summary describes a finished run.
type Summary struct {
	RunID    string                `json:"run_id"`
	Target   string                `json:"target"`
	Project  string                `json:"project"`
	Trigger  string                `json:"trigger,omitempty"`
	Started  time.Time             `json:"started"`
	Finished time.Time             `json:"finished"`
	Flagged  bool                  `json:"flagged"`
	Results  []*checker.PartResult `json:"-"`
	Parts    []PartSummary         `json:"parts"`
	// New lists candidates not reported by earlier runs. It is empty when
	// no history store is configured.
	New []history.Candidate `json:"new,omitempty"`
}

// PartSummary is the JSON view of a part result.
type PartSummary struct {
	Name    string   `json:"name"`
	Pinned  string   `json:"pinned,omitempty"`
	Updates []string `json:"updates,omitempty"`
	Flagged bool     `json:"flagged,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func summarize(results []*checker.PartResult) []PartSummary {
	out := make([]PartSummary, 0, len(results))
	for _, r := range results {
		ps := PartSummary{Name: r.Name, Flagged: r.Flagged, Skipped: r.Skipped}
		switch {
		case r.Current != nil:
			ps.Pinned = r.Current.Name
		case r.UseBranch:
			ps.Pinned = r.CurrentBranch
		}
		for _, u := range r.Updates {
			ps.Updates = append(ps.Updates, u.Name)
		}
		if r.Err != nil {
			ps.Error = r.Err.Error()
		}
		out = append(out, ps)
	}
	return out
}

// Load reads a snapcraft file from a path or URL.
func (r *Runner) Load(ctx context.Context, target string) ([]byte, error) {
	if IsURL(target) {
		if r.opts.Fetcher == nil {
			return nil, errors.InternalError("no fetcher configured for URL targets").Build()
		}
		return r.opts.Fetcher.GetRaw(ctx, target)
	}
	// #nosec G304 -- target comes from the command line.
	content, err := os.ReadFile(target)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read snapcraft file").
			WithContext("path", target).
			Build()
	}
	return content, nil
}

// Check runs the parts of target, or only the named parts when given.
func (r *Runner) Check(ctx context.Context, target, trigger string, parts []string) (*Summary, error) {
	sum := &Summary{RunID: r.newID(), Target: target, Trigger: trigger, Started: r.now()}
	logger := r.opts.Logger.With(logfields.RunID(sum.RunID))

	content, err := r.Load(ctx, target)
	if err != nil {
		return nil, err
	}
	project, err := snapcraft.Parse(content)
	if err != nil {
		return nil, err
	}
	sum.Project = project.Name
	if sum.Project == "" {
		sum.Project = target
	}

	opts := []checker.Option{checker.WithLogger(logger), checker.WithRecorder(r.opts.Recorder)}
	if r.opts.Diagnostics != nil {
		opts = append(opts, checker.WithDiagnostics(r.opts.Diagnostics))
	}
	c := checker.New(project, r.opts.Lister, opts...)
	if len(parts) > 0 {
		sum.Results, sum.Flagged, err = c.CheckParts(ctx, parts)
	} else {
		sum.Results, sum.Flagged, err = c.CheckAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	sum.Finished = r.now()
	sum.Parts = summarize(sum.Results)

	r.persist(ctx, logger, sum)
	logger.Info("Check finished",
		slog.String("project", sum.Project),
		slog.Bool("flagged", sum.Flagged),
		logfields.Candidates(len(sum.New)),
		logfields.DurationMS(float64(sum.Finished.Sub(sum.Started).Microseconds())/1000))
	return sum, nil
}

// persist records the run and announces new candidates. Failures are
// logged; they never fail the check itself.
func (r *Runner) persist(ctx context.Context, logger *slog.Logger, sum *Summary) {
	if r.opts.History == nil {
		return
	}
	fresh, err := r.opts.History.Observe(ctx, sum.RunID, sum.Project, sum.Results)
	if err != nil {
		logger.Warn("Failed to record candidates", logfields.Error(err))
		return
	}
	sum.New = fresh
	if err := r.opts.History.RecordRun(ctx, history.Run{
		ID:       sum.RunID,
		Project:  sum.Project,
		Started:  sum.Started,
		Finished: sum.Finished,
		Flagged:  sum.Flagged,
		Parts:    len(sum.Results),
	}); err != nil {
		logger.Warn("Failed to record run", logfields.Error(err))
	}
	if len(fresh) == 0 {
		return
	}
	if err := r.opts.Publisher.Publish(ctx, fresh); err != nil {
		logger.Warn("Failed to publish candidates", logfields.Error(err))
	}
}
