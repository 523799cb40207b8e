package git

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	n    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &fixture{t: t, dir: dir, repo: repo}
}

func (f *fixture) commit(when time.Time) plumbing.Hash {
	f.t.Helper()
	f.n++
	wt, err := f.repo.Worktree()
	require.NoError(f.t, err)
	name := filepath.Join(f.dir, "file.txt")
	require.NoError(f.t, os.WriteFile(name, []byte(strconv.Itoa(f.n)), 0o600))
	_, err = wt.Add("file.txt")
	require.NoError(f.t, err)
	sig := &object.Signature{Name: "Packager", Email: "packager@example.org", When: when}
	hash, err := wt.Commit("change", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(f.t, err)
	return hash
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDescribe(t *testing.T) {
	t.Run("no tags", func(t *testing.T) {
		f := newFixture(t)
		hash := f.commit(base)
		got, err := Describe(f.repo)
		require.NoError(t, err)
		assert.Equal(t, hash.String()[:7], got)
	})

	t.Run("tagged head", func(t *testing.T) {
		f := newFixture(t)
		f.commit(base)
		hash := f.commit(base.Add(time.Hour))
		_, err := f.repo.CreateTag("46.1", hash, nil)
		require.NoError(t, err)
		got, err := Describe(f.repo)
		require.NoError(t, err)
		assert.Equal(t, "46.1", got)
	})

	t.Run("commits after annotated tag", func(t *testing.T) {
		f := newFixture(t)
		tagged := f.commit(base)
		_, err := f.repo.CreateTag("v2.0.0", tagged, &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Packager", Email: "packager@example.org", When: base},
			Message: "release",
		})
		require.NoError(t, err)
		f.commit(base.Add(time.Hour))
		head := f.commit(base.Add(2 * time.Hour))

		got, err := Describe(f.repo)
		require.NoError(t, err)
		assert.Equal(t, "v2.0.0-2-g"+head.String()[:7], got)
		assert.Regexp(t, regexp.MustCompile(`^v2\.0\.0-2-g[0-9a-f]{7}$`), got)
	})
}

func TestHeadAuthorDate(t *testing.T) {
	f := newFixture(t)
	f.commit(base)
	f.commit(base.Add(48 * time.Hour))

	got, err := HeadAuthorDate(f.repo)
	require.NoError(t, err)
	assert.True(t, got.Equal(base.Add(48*time.Hour)))
}

func TestHeadAuthorDate_EmptyRepository(t *testing.T) {
	f := newFixture(t)
	_, err := HeadAuthorDate(f.repo)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestRepoDir(t *testing.T) {
	c := NewClient("/work")
	assert.Equal(t, filepath.Join("/work", "gnome-calculator"), c.RepoDir("https://github.com/ubuntu/gnome-calculator.git"))
	assert.Equal(t, filepath.Join("/work", "gnome-calculator"), c.RepoDir("https://github.com/ubuntu/gnome-calculator/"))
}

func TestClassifyCloneError(t *testing.T) {
	tests := []struct {
		msg      string
		category errors.ErrorCategory
	}{
		{"authentication required", errors.CategoryAuth},
		{"repository not found", errors.CategoryNotFound},
		{"unsupported protocol scheme \"ftp\"", errors.CategoryValidation},
		{"dial tcp: i/o timeout", errors.CategoryNetwork},
		{"object not packed", errors.CategoryGit},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := classifyCloneError("https://example.org/a/b.git", assertError(tt.msg))
			assert.True(t, errors.HasCategory(err, tt.category))
		})
	}
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestOpen(t *testing.T) {
	f := newFixture(t)
	f.commit(base)
	repo, err := Open(f.dir)
	require.NoError(t, err)
	require.NotNil(t, repo)

	_, err = Open(t.TempDir())
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}
