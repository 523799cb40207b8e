package updater

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

func branches(names ...string) []versioning.Reference {
	out := make([]versioning.Reference, 0, len(names))
	for _, n := range names {
		out = append(out, versioning.Reference{Name: n, Type: versioning.ReferenceBranch})
	}
	return out
}

func TestWorkingBranch(t *testing.T) {
	tests := []struct {
		name     string
		branches []string
		want     string
	}{
		{"update branch wins", []string{"main", "stable", "update_versions"}, UpdateBranch},
		{"stable over main", []string{"master", "main", "stable"}, "stable"},
		{"main over master", []string{"master", "main"}, "main"},
		{"master", []string{"dev", "master"}, "master"},
		{"default branch", []string{"dev", "gnome-44"}, ""},
		{"no branches", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorkingBranch(branches(tt.branches...)))
		})
	}
}

type fakeFetcher struct {
	branches []versioning.Reference
	files    map[string]string
	listErr  error
	fetched  []string
}

func (f *fakeFetcher) ListBranches(context.Context, string) ([]versioning.Reference, error) {
	return f.branches, f.listErr
}

func (f *fakeFetcher) FetchFile(_ context.Context, _, ref, path string) ([]byte, error) {
	f.fetched = append(f.fetched, ref+":"+path)
	content, ok := f.files[ref+":"+path]
	if !ok {
		return nil, errors.NotFoundError("file not found").Build()
	}
	return []byte(content), nil
}

func TestFetchProject(t *testing.T) {
	const project = "https://github.com/ubuntu/gnome-calculator"
	nested := "snap/snapcraft.yaml"

	t.Run("top level file", func(t *testing.T) {
		f := &fakeFetcher{
			branches: branches("main", "stable"),
			files:    map[string]string{"stable:snapcraft.yaml": "name: calc\n"},
		}
		remote, err := FetchProject(context.Background(), f, project)
		require.NoError(t, err)
		assert.Equal(t, &Remote{Project: project, Ref: "stable", Path: "snapcraft.yaml", Content: []byte("name: calc\n")}, remote)
		assert.Equal(t, []string{"stable:snapcraft.yaml"}, f.fetched)
	})

	t.Run("falls back to snap folder", func(t *testing.T) {
		f := &fakeFetcher{
			branches: branches("master"),
			files:    map[string]string{"master:" + nested: "name: calc\n"},
		}
		remote, err := FetchProject(context.Background(), f, project)
		require.NoError(t, err)
		assert.Equal(t, nested, remote.Path)
		assert.Equal(t, []string{"master:snapcraft.yaml", "master:" + nested}, f.fetched)
	})

	t.Run("not found", func(t *testing.T) {
		f := &fakeFetcher{}
		_, err := FetchProject(context.Background(), f, project)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
		assert.Contains(t, err.Error(), "failed to get the snapcraft.yaml file")
	})

	t.Run("listing failure", func(t *testing.T) {
		f := &fakeFetcher{listErr: errors.AuthError("bad credentials").Build()}
		_, err := FetchProject(context.Background(), f, project)
		assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
		assert.Empty(t, f.fetched)
	})
}
