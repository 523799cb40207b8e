package git

import (
	"time"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// HeadAuthorDate returns the author date of the HEAD commit.
func HeadAuthorDate(repo *git.Repository) (time.Time, error) {
	head, err := repo.Head()
	if err != nil {
		return time.Time{}, errors.WrapError(err, errors.CategoryGit, "failed to resolve HEAD").
			WithRetry(errors.RetryNever).
			Build()
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, errors.WrapError(err, errors.CategoryGit, "failed to read HEAD commit").
			WithRetry(errors.RetryNever).
			WithContext("commit", head.Hash().String()).
			Build()
	}
	return commit.Author.When, nil
}
