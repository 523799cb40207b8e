package git

import (
	stderrors "errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

const shortHashLen = 7

// Describe names HEAD after the nearest reachable tag, the way
// `git describe --tags --always` does: "<tag>" when HEAD is tagged,
// "<tag>-<n>-g<hash>" when n commits follow the tag, and the abbreviated
// hash when no tag is reachable.
func Describe(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGit, "failed to resolve HEAD").
			WithRetry(errors.RetryNever).
			Build()
	}
	tags, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGit, "failed to walk history").
			WithRetry(errors.RetryNever).
			Build()
	}
	defer iter.Close()

	var (
		name     string
		distance int
	)
	err = iter.ForEach(func(c *object.Commit) error {
		if tag, ok := tags[c.Hash]; ok {
			name = tag
			return storer.ErrStop
		}
		distance++
		return nil
	})
	if err != nil && !stderrors.Is(err, storer.ErrStop) {
		return "", errors.WrapError(err, errors.CategoryGit, "failed to walk history").
			WithRetry(errors.RetryNever).
			Build()
	}

	short := head.Hash().String()[:shortHashLen]
	switch {
	case name == "":
		return short, nil
	case distance == 0:
		return name, nil
	default:
		return fmt.Sprintf("%s-%d-g%s", name, distance, short), nil
	}
}

// tagsByCommit maps commit hashes to tag names, peeling annotated tags.
// When several tags point at one commit the lexically greatest wins.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to list tags").
			WithRetry(errors.RetryNever).
			Build()
	}
	out := make(map[plumbing.Hash]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, terr := repo.TagObject(hash); terr == nil {
			commit, cerr := tag.Commit()
			if cerr != nil {
				// Tags of trees or blobs cannot be described against.
				return nil
			}
			hash = commit.Hash
		}
		name := ref.Name().Short()
		if prev, ok := out[hash]; !ok || name > prev {
			out[hash] = name
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "failed to list tags").
			WithRetry(errors.RetryNever).
			Build()
	}
	return out, nil
}
