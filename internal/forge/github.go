package forge

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// GitHubClient implements Client for github.com using the REST v3 API.
type GitHubClient struct {
	*BaseForge
	apiURL string
}

// NewGitHubClient creates a GitHub client. With both user and token set,
// requests use basic auth; a token alone is sent as a bearer token.
func NewGitHubClient(user, token string, opts Options) *GitHubClient {
	opts = opts.withDefaults()
	base := NewBaseForge("github", opts)
	base.SetCustomHeader("Accept", "application/vnd.github+json")
	base.authorize = func(req *http.Request) {
		switch {
		case user != "" && token != "":
			req.SetBasicAuth(user, token)
		case token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return &GitHubClient{
		BaseForge: base,
		apiURL:    strings.TrimSuffix(opts.GitHubAPIURL, "/"),
	}
}

// Name returns the forge name.
func (c *GitHubClient) Name() string { return "github" }

// Recognizes matches github.com and www.github.com.
func (c *GitHubClient) Recognizes(u *url.URL) bool {
	return u.Host == "github.com" || u.Host == "www.github.com"
}

type githubRef struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

type githubCommit struct {
	Commit struct {
		Author struct {
			Date string `json:"date"`
		} `json:"author"`
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type githubContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *GitHubClient) repoURL(repo *Repository, tail string) string {
	return c.apiURL + "/repos/" + repo.Path() + "/" + tail
}

// ListTags lists tags newest first. Each kept tag costs one extra request
// to read its commit date.
func (c *GitHubClient) ListTags(ctx context.Context, repo *Repository, pinned string, spec *versioning.FormatSpec) ([]versioning.Reference, error) {
	stop := func(page []githubRef) bool {
		return pinned != "" && slices.ContainsFunc(page, func(r githubRef) bool { return r.Name == pinned })
	}
	refs, err := GetPages(ctx, c.BaseForge, c.repoURL(repo, "tags?sort=created&direction=desc"), stop)
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
		var commit githubCommit
		if _, err := c.Get(ctx, ref.Commit.URL, &commit); err != nil {
			return nil, err
		}
		date := commit.Commit.Committer.Date
		if date == "" {
			date = commit.Commit.Author.Date
		}
		tags = append(tags, versioning.Reference{
			Name:      ref.Name,
			Type:      versioning.ReferenceTag,
			CommitSHA: ref.Commit.SHA,
			Date:      parseDate(date),
		})
		if ref.Name == pinned {
			break
		}
	}
	return tags, nil
}

// ListBranches lists branches. GitHub does not report branch dates in the
// listing, so Date is left unknown.
func (c *GitHubClient) ListBranches(ctx context.Context, repo *Repository) ([]versioning.Reference, error) {
	refs, err := GetPages[githubRef](ctx, c.BaseForge, c.repoURL(repo, "branches"), nil)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	branches := make([]versioning.Reference, 0, len(refs))
	for _, ref := range refs {
		branches = append(branches, versioning.Reference{
			Name:      ref.Name,
			Type:      versioning.ReferenceBranch,
			CommitSHA: ref.Commit.SHA,
		})
	}
	return branches, nil
}

// FetchFile reads a file through the contents API.
func (c *GitHubClient) FetchFile(ctx context.Context, repo *Repository, ref, path string) ([]byte, error) {
	endpoint := c.repoURL(repo, "contents/"+strings.TrimPrefix(path, "/"))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	var content githubContent
	if _, err := c.Get(ctx, endpoint, &content); err != nil {
		return nil, err
	}
	if content.Content == "" {
		return nil, ErrFileNotFound.WithContext("path", path).WithContext("repository", repo.String())
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, errors.ForgeError("failed to decode file content").
			WithCause(err).
			WithRetry(errors.RetryNever).
			WithContext("path", path).
			Build()
	}
	return data, nil
}
