package versioning

import (
	"time"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// ReferenceType identifies the type of upstream reference.
type ReferenceType string

const (
	ReferenceBranch ReferenceType = "branch"
	ReferenceTag    ReferenceType = "tag"
)

// Reference is a tag or branch as returned by a forge listing.
type Reference struct {
	Name      string        `json:"name"`
	Type      ReferenceType `json:"type"`
	CommitSHA string        `json:"commit_sha,omitempty"`
	// Date is the commit date. The zero value means the forge did not
	// report one.
	Date time.Time `json:"date"`
}

// epoch is used in place of an unknown date when ordering references.
var epoch = time.Unix(0, 0).UTC()

// When returns Date, or the Unix epoch when the date is unknown.
func (r Reference) When() time.Time {
	if r.Date.IsZero() {
		return epoch
	}
	return r.Date
}

// Diagnostic is a message raised while resolving versions.
type Diagnostic struct {
	Severity ferrors.ErrorSeverity
	Message  string
}

// DiagnosticSink receives diagnostics. A nil sink discards them.
type DiagnosticSink func(Diagnostic)

func (s DiagnosticSink) emit(severity ferrors.ErrorSeverity, message string) {
	if s != nil {
		s(Diagnostic{Severity: severity, Message: message})
	}
}

// ErrCurrentTagMissing is returned when the pinned tag is not among the
// tags listed by the forge.
var ErrCurrentTagMissing = ferrors.PartError("can't find the current tag in the tag list").
	Critical().
	Build()
