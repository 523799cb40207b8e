package snapversion

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/git"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
	"git.home.luguber.info/inful/updatesnap/internal/workspace"
)

// Snapshot is what is needed from a repository's history.
type Snapshot struct {
	HeadDate time.Time
	Describe string
}

// GitInspector clones a repository into a scratch directory, reads HEAD
// and removes the clone again.
type GitInspector struct {
	User, Token string
	// WorkDir holds the scratch clones; empty means the system temp dir.
	WorkDir string
	Logger  *slog.Logger
}

// Inspect implements Inspector.
func (g GitInspector) Inspect(ctx context.Context, repoURL string) (*Snapshot, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ws := workspace.NewManager(g.WorkDir, logger)
	if err := ws.Create(); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			logger.Warn("Failed to remove scratch directory", logfields.Error(cerr))
		}
	}()

	client := git.NewClient(ws.Path()).WithBasicAuth(g.User, g.Token).WithLogger(logger)
	repo, _, err := client.Clone(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	date, err := git.HeadAuthorDate(repo)
	if err != nil {
		return nil, err
	}
	desc, err := git.Describe(repo)
	if err != nil {
		return nil, err
	}
	return &Snapshot{HeadDate: date, Describe: desc}, nil
}
