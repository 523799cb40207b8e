package checker

import (
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// PartResult is the outcome of checking one part.
type PartResult struct {
	Name      string
	SourceURL string
	// Format is the effective version format, after auto-detection.
	Format versioning.FormatSpec

	// Current is the pinned tag as listed by the forge. It is nil for
	// branches and when the pinned tag could not be found.
	Current *versioning.Reference
	// CurrentVersion is the pinned tag parsed with Format, or nil when it
	// does not parse.
	CurrentVersion *versioning.Version
	CurrentBranch  string

	UseTag        bool
	UseBranch     bool
	MissingFormat bool
	// Skipped is set when the source cannot be checked at all, e.g. it is
	// not a git repository.
	Skipped bool
	// Flagged is set when this part raised the run error flag.
	Flagged bool

	// Updates lists newer tags, most recently dated first.
	Updates []versioning.Reference
	// BranchUpdates lists branches with commits newer than the pinned
	// branch.
	BranchUpdates []versioning.Reference
	// Latest holds up to four of the most recent references, reported for
	// branch pinned parts and parts with neither tag nor branch.
	Latest []versioning.Reference

	// Err is the part level error, if any.
	Err         error
	Diagnostics []versioning.Diagnostic
}

// HasUpdates reports whether newer references were found.
func (r *PartResult) HasUpdates() bool { return r != nil && len(r.Updates) > 0 }

// Newest returns the first update, or nil.
func (r *PartResult) Newest() *versioning.Reference {
	if !r.HasUpdates() {
		return nil
	}
	return &r.Updates[0]
}

// Metadata is the snap level information used to compute a new snap
// version.
type Metadata struct {
	Name      string
	Version   string
	Grade     string
	AdoptInfo string
	// UpstreamURL and UpstreamVersion come from the adopted part.
	UpstreamURL     string
	UpstreamVersion *versioning.Reference
}
