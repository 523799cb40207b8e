package forge

import (
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

var (
	// ErrInvalidURI signals a source URL with an unsupported scheme or too
	// few path elements to name a repository.
	ErrInvalidURI = errors.ValidationError("invalid repository URI").Build()

	// ErrUnsupportedHost signals that no forge client recognizes the host.
	ErrUnsupportedHost = errors.ForgeError("unsupported repository host").
				WithRetry(errors.RetryNever).
				WithSeverity(errors.SeverityWarning).
				Build()

	// ErrFileNotFound signals that a repository file has no content.
	ErrFileNotFound = errors.NotFoundError("file not found in repository").Build()
)

// IsInvalidURI reports whether err is ErrInvalidURI.
func IsInvalidURI(err error) bool { return matches(err, ErrInvalidURI) }

// IsUnsupportedHost reports whether err is ErrUnsupportedHost.
func IsUnsupportedHost(err error) bool { return matches(err, ErrUnsupportedHost) }

func matches(err error, target *errors.ClassifiedError) bool {
	c, ok := errors.AsClassified(err)
	return ok && c.Is(target)
}
