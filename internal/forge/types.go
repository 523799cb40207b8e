// Package forge lists tags and branches of upstream repositories hosted on
// GitHub or GitLab, and fetches single files from them.
package forge

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/metrics"
	"git.home.luguber.info/inful/updatesnap/internal/retry"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// Repository is a validated upstream repository URL.
type Repository struct {
	// URL has any ".git" suffix removed.
	URL *url.URL
	Raw string
}

// ParseRepository validates a source URL. The scheme must be http, https or
// git and the path must name at least an owner and a project.
func ParseRepository(raw string) (*Repository, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), ".git")
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, ErrInvalidURI.WithContext("url", raw)
	}
	switch u.Scheme {
	case "http", "https", "git":
	default:
		return nil, ErrInvalidURI.WithContext("url", raw).WithContext("reason", "unrecognized protocol")
	}
	if len(strings.Split(u.Path, "/")) < 3 {
		return nil, ErrInvalidURI.WithContext("url", raw).WithContext("reason", "invalid uri format")
	}
	return &Repository{URL: u, Raw: raw}, nil
}

// Host returns the URL host, including any port.
func (r *Repository) Host() string { return r.URL.Host }

// Path returns the repository path without surrounding slashes, e.g.
// "GNOME/gnome-calculator".
func (r *Repository) Path() string { return strings.Trim(r.URL.Path, "/") }

func (r *Repository) String() string { return r.URL.String() }

// Client is a forge variant.
type Client interface {
	Name() string
	// Recognizes reports whether the client serves repositories on u's host.
	Recognizes(u *url.URL) bool
	// ListTags returns tags newest first, stopping once pinned has been
	// seen. When spec has a format, tags it rejects are left out, except
	// pinned itself.
	ListTags(ctx context.Context, repo *Repository, pinned string, spec *versioning.FormatSpec) ([]versioning.Reference, error)
	ListBranches(ctx context.Context, repo *Repository) ([]versioning.Reference, error)
	// FetchFile returns the content of path at ref. An empty ref means the
	// default branch.
	FetchFile(ctx context.Context, repo *Repository, ref, path string) ([]byte, error)
}

// Options configures the HTTP side of the forge clients.
type Options struct {
	HTTPClient *http.Client
	Retry      retry.Policy
	Recorder   metrics.Recorder
	Logger     *slog.Logger
	// GitHubAPIURL overrides https://api.github.com.
	GitHubAPIURL string
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = newHTTPClient30s()
	}
	if o.Retry == (retry.Policy{}) {
		o.Retry = retry.DefaultPolicy()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.GitHubAPIURL == "" {
		o.GitHubAPIURL = "https://api.github.com"
	}
	return o
}
