// Package checker applies the per-part update policy of a snapcraft
// project: it validates each part's source, lists upstream tags or
// branches and ranks them against the pinned reference.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/snapcraft"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// Lister lists upstream references by source URL. *forge.Registry
// implements it.
type Lister interface {
	ListTags(ctx context.Context, source, pinned string, spec *versioning.FormatSpec) ([]versioning.Reference, error)
	ListBranches(ctx context.Context, source string) ([]versioning.Reference, error)
}

// DiagnosticFunc observes diagnostics while parts are checked.
type DiagnosticFunc func(part, source string, d versioning.Diagnostic)

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Checker) { c.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(c *Checker) { c.recorder = r } }

// WithDiagnostics streams diagnostics to fn as they are raised.
func WithDiagnostics(fn DiagnosticFunc) Option { return func(c *Checker) { c.observe = fn } }

// Checker checks the parts of one project. It is not safe for concurrent
// use.
type Checker struct {
	project  *snapcraft.Project
	lister   Lister
	logger   *slog.Logger
	recorder metrics.Recorder
	observe  DiagnosticFunc
}

// New creates a Checker.
func New(project *snapcraft.Project, lister Lister, opts ...Option) *Checker {
	c := &Checker{
		project:  project,
		lister:   lister,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAll checks every part in document order. The returned flag is set
// when any part raised a policy error. An error is returned only when the
// run cannot continue; results gathered so far are returned with it.
func (c *Checker) CheckAll(ctx context.Context) ([]*PartResult, bool, error) {
	return c.CheckParts(ctx, c.project.PartNames())
}

// CheckParts checks the named parts in the given order. Unknown and
// skipped parts produce no result.
func (c *Checker) CheckParts(ctx context.Context, names []string) ([]*PartResult, bool, error) {
	start := time.Now()
	var (
		results []*PartResult
		flag    bool
	)
	for _, name := range names {
		res, err := c.CheckPart(ctx, name)
		if err != nil {
			c.recorder.IncRunOutcome(metrics.RunFailed)
			return results, flag, err
		}
		if res == nil {
			continue
		}
		flag = flag || res.Flagged
		results = append(results, res)
	}
	c.recorder.ObserveRunDuration(time.Since(start))
	if flag {
		c.recorder.IncRunOutcome(metrics.RunFlagged)
	} else {
		c.recorder.IncRunOutcome(metrics.RunClean)
	}
	return results, flag, nil
}

// CheckPart checks one part. A nil result means the part does not exist,
// has no remote source or is marked to be ignored.
func (c *Checker) CheckPart(ctx context.Context, name string) (*PartResult, error) {
	part := c.project.Part(name)
	if part == nil || part.Source == "" || !strings.Contains(part.Source, "://") || part.VersionFormat.Ignore {
		return nil, nil
	}

	s := &state{
		checker: c,
		part:    part,
		result: &PartResult{
			Name:      name,
			SourceURL: part.Source,
			Format:    part.VersionFormat.WithDetectedFormat(part.Tag()),
		},
	}
	s.result.MissingFormat = !s.result.Format.HasFormat()

	c.logger.Info("Checking part", logfields.Part(name), logfields.Source(part.Source))
	if err := s.run(ctx); err != nil {
		return nil, err
	}
	c.record(s.result)
	return s.result, nil
}

func (c *Checker) record(res *PartResult) {
	switch {
	case res.Err != nil || res.Flagged:
		c.recorder.IncPartOutcome(metrics.PartError)
	case res.Skipped:
		c.recorder.IncPartOutcome(metrics.PartSkipped)
	case res.MissingFormat:
		c.recorder.IncPartOutcome(metrics.PartNoFormat)
	case res.HasUpdates() || len(res.BranchUpdates) > 0:
		c.recorder.IncPartOutcome(metrics.PartUpdates)
	default:
		c.recorder.IncPartOutcome(metrics.PartCurrent)
	}
	c.recorder.SetPendingUpdates(res.Name, len(res.Updates)+len(res.BranchUpdates))
	c.logger.Debug("Part checked",
		logfields.Part(res.Name),
		logfields.Candidates(len(res.Updates)),
		slog.Bool("flagged", res.Flagged))
}

// Metadata returns the snap level fields. When the project adopts its
// info from a part, that part's source and newest update are included;
// results from an earlier run are reused when they contain the part.
func (c *Checker) Metadata(ctx context.Context, results []*PartResult) (*Metadata, error) {
	md := &Metadata{
		Name:      c.project.Name,
		Version:   c.project.Version,
		Grade:     c.project.Grade,
		AdoptInfo: c.project.AdoptInfo,
	}
	if md.AdoptInfo == "" {
		return md, nil
	}
	var adopted *PartResult
	for _, r := range results {
		if r != nil && r.Name == md.AdoptInfo {
			adopted = r
			break
		}
	}
	if adopted == nil {
		var err error
		if adopted, err = c.CheckPart(ctx, md.AdoptInfo); err != nil {
			return nil, err
		}
	}
	if adopted == nil {
		return md, nil
	}
	md.UpstreamURL = adopted.SourceURL
	md.UpstreamVersion = adopted.Newest()
	return md, nil
}

// state carries one part through the policy steps.
type state struct {
	checker *Checker
	part    *snapcraft.Part
	result  *PartResult
}

func (s *state) emit(severity ferrors.ErrorSeverity, message string) {
	d := versioning.Diagnostic{Severity: severity, Message: message}
	s.result.Diagnostics = append(s.result.Diagnostics, d)
	if s.checker.observe != nil {
		s.checker.observe(s.result.Name, s.result.SourceURL, d)
	}
}

func (s *state) sink() versioning.DiagnosticSink {
	return func(d versioning.Diagnostic) { s.emit(d.Severity, d.Message) }
}

func (s *state) info(message string)     { s.emit(ferrors.SeverityInfo, message) }
func (s *state) warning(message string)  { s.emit(ferrors.SeverityWarning, message) }
func (s *state) critical(message string) { s.emit(ferrors.SeverityCritical, message) }

// fail records a part error and raises the run flag.
func (s *state) fail(err error, message string) {
	s.critical(message)
	s.result.Flagged = true
	if err == nil {
		err = ferrors.PartError(message).Critical().WithContext("part", s.result.Name).Build()
	}
	s.result.Err = err
}

// listingFailed handles a forge error. Context cancellation aborts the
// run; anything else is a part error.
func (s *state) listingFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.fail(ferrors.WrapError(err, ferrors.CategoryPart, "failed to list upstream references").
		Critical().
		WithContext("part", s.result.Name).
		WithContext("source", s.result.SourceURL).
		Build(), fmt.Sprintf("Invalid URI: %v", err))
	s.checker.logger.Warn("Listing failed",
		logfields.Part(s.result.Name),
		logfields.Source(s.result.SourceURL),
		logfields.Error(err))
	return nil
}

func (s *state) isGitType() bool { return s.part.SourceType == "git" }

func (s *state) run(ctx context.Context) error {
	source := s.part.Source
	if !s.isGitType() && !hasAnyPrefix(source, "http://", "https://", "git://") {
		s.critical("Source is neither http:// nor git://")
		s.result.Skipped = true
		return nil
	}
	if !s.isGitType() && !strings.HasSuffix(source, ".git") {
		s.warning("Source is not a GIT repository")
		s.result.Skipped = true
		return nil
	}
	if s.part.SourceDepth == nil {
		s.fail(nil, "No 'source-depth' entry")
		return nil
	}
	if u, err := url.Parse(source); err == nil && strings.Contains(u.Host, "savannah") {
		s.fail(ferrors.PartError("savannah repositories are not supported").
			Critical().
			WithContext("part", s.result.Name).
			WithContext("source", source).
			Build(), "Savannah repositories not supported")
		return nil
	}

	if s.part.SourceTag == nil && s.part.SourceBranch == nil {
		return s.checkUnpinned(ctx)
	}
	if s.part.SourceTag != nil {
		if err := s.checkTag(ctx); err != nil || s.result.Err != nil {
			return err
		}
	}
	if s.part.SourceBranch != nil {
		return s.checkBranch(ctx)
	}
	return nil
}

func (s *state) checkUnpinned(ctx context.Context) error {
	lister := s.checker.lister
	tags, err := lister.ListTags(ctx, s.result.SourceURL, "", &s.result.Format)
	if err != nil {
		return s.listingFailed(ctx, err)
	}
	if _, err := lister.ListBranches(ctx, s.result.SourceURL); err != nil {
		return s.listingFailed(ctx, err)
	}

	const message = "Has neither a source-tag nor a source-branch element"
	if s.result.Format.AllowNeitherTagNorBranch {
		s.warning("Warning: " + message)
	} else {
		s.critical(message)
		s.result.Flagged = true
	}
	if tags != nil {
		s.result.Latest = versioning.Latest(tags, 4)
		s.info("Last tags:")
		s.listRefs(s.result.Latest)
	}
	return nil
}

func (s *state) checkTag(ctx context.Context) error {
	current := s.part.Tag()
	tags, err := s.checker.lister.ListTags(ctx, s.result.SourceURL, current, &s.result.Format)
	if err != nil {
		return s.listingFailed(ctx, err)
	}
	s.result.UseTag = true
	s.info("Current tag: " + current)
	if tags == nil {
		s.fail(nil, "No tags found. Ensure that the source URI is valid.")
		return nil
	}

	pinned, newer, err := versioning.RankTags(current, tags, &s.result.Format, s.sink())
	if err != nil {
		s.fail(err, "Error: can't find the current tag in the tag list.")
		return nil
	}
	s.result.Current = &pinned
	if v, ok := versioning.Extract(&s.result.Format, current, false, nil); ok {
		s.result.CurrentVersion = &v
	}
	s.info("Current tag date: " + formatDate(pinned))
	s.result.Updates = newer
	if len(newer) == 0 {
		s.info("Tag updated")
		return nil
	}
	s.warning("Newer tags:")
	s.listRefs(newer)
	return nil
}

func (s *state) checkBranch(ctx context.Context) error {
	current := s.part.Branch()
	s.result.UseBranch = true
	s.result.CurrentBranch = current
	s.info("Current branch: " + current)

	branches, err := s.checker.lister.ListBranches(ctx, s.result.SourceURL)
	if err != nil {
		return s.listingFailed(ctx, err)
	}
	if branches == nil {
		s.fail(nil, "No branches found. Ensure that the source URI is valid.")
		return nil
	}
	s.result.BranchUpdates = versioning.RankBranches(current, branches)
	if len(s.result.BranchUpdates) == 0 {
		s.info("Branch updated")
	}
	s.result.Latest = versioning.Latest(branches, 4)
	s.info("Last branches:")
	s.listRefs(s.result.Latest)

	const message = "Uses branches. Should be moved to an specific tag"
	if s.result.Format.AllowBranch {
		s.warning(message)
	} else {
		s.critical(message)
		s.result.Flagged = true
	}
	return nil
}

func (s *state) listRefs(refs []versioning.Reference) {
	for _, r := range refs {
		s.info(fmt.Sprintf("  %s (%s)", r.Name, formatDate(r)))
	}
}

func formatDate(r versioning.Reference) string {
	if r.Date.IsZero() {
		return "unknown date"
	}
	return r.Date.Format("2006-01-02 15:04:05 -0700")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
