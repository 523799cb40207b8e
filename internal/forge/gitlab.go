package forge

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// GitLabClient implements Client for GitLab instances, including Debian's
// salsa, using the REST v4 API of the repository's own host.
type GitLabClient struct {
	*BaseForge
}

// NewGitLabClient creates a GitLab client. A non-empty token is sent as
// PRIVATE-TOKEN.
func NewGitLabClient(token string, opts Options) *GitLabClient {
	base := NewBaseForge("gitlab", opts)
	if token != "" {
		base.SetCustomHeader("PRIVATE-TOKEN", token)
	}
	return &GitLabClient{BaseForge: base}
}

// Name returns the forge name.
func (c *GitLabClient) Name() string { return "gitlab" }

// Recognizes matches hosts containing "gitlab" or "salsa".
func (c *GitLabClient) Recognizes(u *url.URL) bool {
	return strings.Contains(u.Host, "gitlab") || strings.Contains(u.Host, "salsa")
}

type gitlabRef struct {
	Name   string `json:"name"`
	Commit struct {
		ID            string `json:"id"`
		CommittedDate string `json:"committed_date"`
		CreatedAt     string `json:"created_at"`
	} `json:"commit"`
}

func (c *GitLabClient) projectURL(repo *Repository, tail string) string {
	scheme := repo.URL.Scheme
	if scheme == "git" {
		scheme = "https"
	}
	return scheme + "://" + repo.Host() + "/api/v4/projects/" + url.PathEscape(repo.Path()) + "/" + tail
}

// ListTags lists tags ordered by update time, stopping at the page that
// contains pinned.
func (c *GitLabClient) ListTags(ctx context.Context, repo *Repository, pinned string, spec *versioning.FormatSpec) ([]versioning.Reference, error) {
	stop := func(page []gitlabRef) bool {
		return pinned != "" && slices.ContainsFunc(page, func(r gitlabRef) bool { return r.Name == pinned })
	}
	refs, err := GetPages(ctx, c.BaseForge, c.projectURL(repo, "repository/tags?order_by=updated&sort=desc"), stop)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	tags := make([]versioning.Reference, 0, len(refs))
	for _, ref := range refs {
		if ref.Name != pinned && spec.HasFormat() {
			if _, ok := versioning.Extract(spec, ref.Name, false, nil); !ok {
				continue
			}
		}
		tags = append(tags, versioning.Reference{
			Name:      ref.Name,
			Type:      versioning.ReferenceTag,
			CommitSHA: ref.Commit.ID,
			Date:      parseDate(ref.Commit.CommittedDate),
		})
	}
	return tags, nil
}

// ListBranches lists branches dated by their head commit.
func (c *GitLabClient) ListBranches(ctx context.Context, repo *Repository) ([]versioning.Reference, error) {
	refs, err := GetPages[gitlabRef](ctx, c.BaseForge, c.projectURL(repo, "repository/branches"), nil)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	branches := make([]versioning.Reference, 0, len(refs))
	for _, ref := range refs {
		date := ref.Commit.CommittedDate
		if date == "" {
			date = ref.Commit.CreatedAt
		}
		branches = append(branches, versioning.Reference{
			Name:      ref.Name,
			Type:      versioning.ReferenceBranch,
			CommitSHA: ref.Commit.ID,
			Date:      parseDate(date),
		})
	}
	return branches, nil
}

// FetchFile reads a raw file. An empty ref reads HEAD.
func (c *GitLabClient) FetchFile(ctx context.Context, repo *Repository, ref, path string) ([]byte, error) {
	if ref == "" {
		ref = "HEAD"
	}
	endpoint := c.projectURL(repo, "repository/files/"+url.PathEscape(strings.TrimPrefix(path, "/"))+"/raw?ref="+url.QueryEscape(ref))

	data, err := c.GetRaw(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrFileNotFound.WithContext("path", path).WithContext("repository", repo.String())
	}
	return data, nil
}
