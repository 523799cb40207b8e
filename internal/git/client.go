package git

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
)

// Client clones repositories below a work directory.
type Client struct {
	workDir string
	auth    transport.AuthMethod
	logger  *slog.Logger
}

// NewClient creates a Client cloning into workDir.
func NewClient(workDir string) *Client {
	return &Client{workDir: workDir, logger: slog.Default()}
}

// WithBasicAuth authenticates HTTP clones with a user and token.
func (c *Client) WithBasicAuth(user, token string) *Client {
	if token == "" {
		return c
	}
	if user == "" {
		// GitHub and GitLab accept any non-empty user name with a token.
		user = "x-access-token"
	}
	c.auth = &http.BasicAuth{Username: user, Password: token}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	c.logger = l
	return c
}

// RepoDir returns the directory a repository URL is cloned into.
func (c *Client) RepoDir(url string) string {
	name := strings.TrimSuffix(path.Base(strings.TrimRight(url, "/")), ".git")
	return filepath.Join(c.workDir, name)
}

// Clone clones url with full history. An existing checkout at the target
// directory is removed first.
func (c *Client) Clone(ctx context.Context, url string) (*git.Repository, string, error) {
	dir := c.RepoDir(url)
	c.logger.Debug("Cloning repository", logfields.URL(url), logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryFileSystem, "failed to remove existing checkout").
			WithContext("path", dir).
			Build()
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: c.auth,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, "", classifyCloneError(url, err)
	}
	if head, herr := repo.Head(); herr == nil {
		c.logger.Info("Repository cloned", logfields.URL(url), slog.String("commit", head.Hash().String()[:8]))
	}
	return repo, dir, nil
}

// Open opens an existing checkout.
func Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to open repository").
			WithRetry(errors.RetryNever).
			WithContext("path", dir).
			Build()
	}
	return repo, nil
}

// classifyCloneError maps go-git failures onto error categories.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	var b *errors.ErrorBuilder
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		b = errors.WrapError(err, errors.CategoryAuth, "clone authentication failed").UserAction()
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		b = errors.WrapError(err, errors.CategoryNotFound, "repository not found")
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		b = errors.WrapError(err, errors.CategoryValidation, "unsupported clone protocol")
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection refused"):
		b = errors.WrapError(err, errors.CategoryNetwork, "clone failed").Retryable()
	default:
		b = errors.WrapError(err, errors.CategoryGit, "clone failed").Retryable()
	}
	return b.WithContext("url", url).Build()
}
