// Package snapversion computes the next snap version and grade from the
// snap store state and the upstream repository history.
//
// The version is "<upstream>-<release>": upstream is the first capture
// group of the version schema matched against `git describe --tags` of the
// upstream repository, and release continues the number of the newest
// published revision when the repository moved after the last edge build,
// or restarts at 1 otherwise.
package snapversion

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
)

// Grade is the grade written alongside a computed version.
const Grade = "stable"

// ErrSchemaMismatch is returned when the version schema does not match the
// described upstream version.
var ErrSchemaMismatch = errors.ValidationError("version schema does not match the repository version").
	Warning().
	Build()

// Store returns the published state of a snap.
type Store interface {
	Info(ctx context.Context, snap string) (*Info, error)
}

// Inspector reads the history of a repository.
type Inspector interface {
	Inspect(ctx context.Context, repoURL string) (*Snapshot, error)
}

// Result is a computed version and grade.
type Result struct {
	Version string
	Grade   string
}

// Resolver combines a Store and an Inspector.
type Resolver struct {
	store     Store
	inspector Inspector
	logger    *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(store Store, inspector Inspector, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, inspector: inspector, logger: logger}
}

// CompileSchema compiles a version schema. The schema must contain at
// least one capture group.
func CompileSchema(schema string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(schema)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid version schema").
			WithContext("schema", schema).
			Build()
	}
	if re.NumSubexp() < 1 {
		return nil, errors.ConfigError("version schema needs a capture group").
			WithContext("schema", schema).
			Build()
	}
	return re, nil
}

// Next computes the version for snap, whose upstream lives at repoURL.
func (r *Resolver) Next(ctx context.Context, snap, repoURL string, schema *regexp.Regexp) (*Result, error) {
	if repoURL == "" {
		return nil, errors.ValidationError("no upstream repository to derive the version from").
			WithContext("snap", snap).
			Build()
	}
	info, err := r.store.Info(ctx, snap)
	if err != nil {
		return nil, err
	}
	snapshot, err := r.inspector.Inspect(ctx, repoURL)
	if err != nil {
		return nil, err
	}

	upstream, ok := MatchSchema(schema, snapshot.Describe)
	if !ok {
		return nil, ErrSchemaMismatch.WithContext("describe", snapshot.Describe)
	}

	release := 1
	if edge := info.Find("edge", "amd64"); edge == nil || snapshot.HeadDate.After(edge.CreatedAt) {
		release = PackageRelease(PreviousVersion(info)) + 1
	}
	version := upstream + "-" + strconv.Itoa(release)
	r.logger.Info("Computed snap version",
		slog.String("snap", snap),
		logfields.Version(version),
		slog.String("describe", snapshot.Describe))
	return &Result{Version: version, Grade: Grade}, nil
}

// MatchSchema matches schema at the start of described and returns the
// first capture group.
func MatchSchema(schema *regexp.Regexp, described string) (string, bool) {
	m := schema.FindStringSubmatchIndex(described)
	if m == nil || m[0] != 0 || m[2] < 0 {
		return "", false
	}
	return described[m[2]:m[3]], true
}

// PreviousVersion returns the greatest version string among the first two
// channel map entries, which the store lists as the stable and edge
// revisions.
func PreviousVersion(info *Info) string {
	var prev string
	for i, c := range info.ChannelMap {
		if i == 2 {
			break
		}
		if c.Version > prev {
			prev = c.Version
		}
	}
	return prev
}

// PackageRelease returns the number after the last '-' of version, or 0
// when that is not a number.
func PackageRelease(version string) int {
	n, err := strconv.Atoi(version[strings.LastIndex(version, "-")+1:])
	if err != nil {
		return 0
	}
	return n
}
