package forge

import (
	"context"

	"git.home.luguber.info/inful/updatesnap/internal/config"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// Registry picks the forge client for a source URL. Clients are tried in
// registration order.
type Registry struct {
	clients []Client
}

// NewRegistry creates a registry over clients.
func NewRegistry(clients ...Client) *Registry {
	return &Registry{clients: clients}
}

// NewDefaultRegistry registers GitHub and GitLab clients with the given
// credentials.
func NewDefaultRegistry(secrets config.Secrets, opts Options) *Registry {
	return NewRegistry(
		NewGitHubClient(secrets.GitHub.User, secrets.GitHub.Token, opts),
		NewGitLabClient(secrets.GitLab.Token, opts),
	)
}

// Resolve validates source and returns the client that serves it.
func (r *Registry) Resolve(source string) (Client, *Repository, error) {
	repo, err := ParseRepository(source)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range r.clients {
		if c.Recognizes(repo.URL) {
			return c, repo, nil
		}
	}
	return nil, nil, ErrUnsupportedHost.WithContext("host", repo.Host())
}

// ListTags resolves source and lists its tags.
func (r *Registry) ListTags(ctx context.Context, source, pinned string, spec *versioning.FormatSpec) ([]versioning.Reference, error) {
	c, repo, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}
	return c.ListTags(ctx, repo, pinned, spec)
}

// ListBranches resolves source and lists its branches.
func (r *Registry) ListBranches(ctx context.Context, source string) ([]versioning.Reference, error) {
	c, repo, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}
	return c.ListBranches(ctx, repo)
}

// FetchFile resolves source and reads one file from it.
func (r *Registry) FetchFile(ctx context.Context, source, ref, path string) ([]byte, error) {
	c, repo, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}
	return c.FetchFile(ctx, repo, ref, path)
}
