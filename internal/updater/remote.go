package updater

import (
	"context"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/snapcraft"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

// UpdateBranch is the branch preferred for automated version updates.
const UpdateBranch = "update_versions"

// branchPreference lists working branch names, most preferred first.
var branchPreference = []string{UpdateBranch, "stable", "main", "master"}

// WorkingBranch picks the branch the snapcraft.yaml is read from. It
// returns "" when none of the preferred branches exist, meaning the
// repository default.
func WorkingBranch(branches []versioning.Reference) string {
	have := make(map[string]bool, len(branches))
	for _, b := range branches {
		have[b.Name] = true
	}
	for _, name := range branchPreference {
		if have[name] {
			return name
		}
	}
	return ""
}

// Fetcher reads files from a forge hosted project. *forge.Registry
// implements it.
type Fetcher interface {
	ListBranches(ctx context.Context, source string) ([]versioning.Reference, error)
	FetchFile(ctx context.Context, source, ref, path string) ([]byte, error)
}

// Remote is a snapcraft.yaml read from a project.
type Remote struct {
	Project string
	Ref     string
	Path    string
	Content []byte
}

// FetchProject reads snapcraft.yaml, or snap/snapcraft.yaml, from the
// working branch of project.
func FetchProject(ctx context.Context, f Fetcher, project string) (*Remote, error) {
	branches, err := f.ListBranches(ctx, project)
	if err != nil {
		return nil, err
	}
	ref := WorkingBranch(branches)
	for _, path := range snapcraft.FileNames {
		content, err := f.FetchFile(ctx, project, ref, path)
		if errors.HasCategory(err, errors.CategoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Remote{Project: project, Ref: ref, Path: path, Content: content}, nil
	}
	return nil, errors.NotFoundError("failed to get the snapcraft.yaml file").
		WithContext("project", project).
		WithContext("ref", ref).
		Build()
}
