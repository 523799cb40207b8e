package snapversion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/updatesnap/internal/forge"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/retry"
)

const channelMap = `{
  "name": "gnome-calculator",
  "channel-map": [
    {"version": "44.0-3", "created-at": "2023-04-01T10:00:00Z",
     "channel": {"name": "stable", "architecture": "amd64", "track": "latest", "risk": "stable"}},
    {"version": "45.0-2", "created-at": "2023-05-01T10:00:00Z",
     "channel": {"name": "edge", "architecture": "amd64", "track": "latest", "risk": "edge"}},
    {"version": "46.0-9", "created-at": "2023-06-01T10:00:00Z",
     "channel": {"name": "edge", "architecture": "arm64", "track": "latest", "risk": "edge"}}
  ]
}`

func storeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Snap-Device-Series") != "16" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Path != "/v2/snaps/info/gnome-calculator" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(channelMap))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func storeClient(srv *httptest.Server) *StoreClient {
	return NewStoreClient(srv.URL, forge.Options{HTTPClient: srv.Client(), Retry: retry.NoRetry()})
}

func TestStoreClient_Info(t *testing.T) {
	srv := storeServer(t)
	info, err := storeClient(srv).Info(context.Background(), "gnome-calculator")
	require.NoError(t, err)
	require.Len(t, info.ChannelMap, 3)

	edge := info.Find("edge", "amd64")
	require.NotNil(t, edge)
	assert.Equal(t, "45.0-2", edge.Version)
	assert.True(t, edge.CreatedAt.Equal(time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, info.Find("beta", "amd64"))

	_, err = storeClient(srv).Info(context.Background(), "unknown")
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

type fakeInspector struct {
	snapshot *Snapshot
	err      error
}

func (f fakeInspector) Inspect(context.Context, string) (*Snapshot, error) {
	return f.snapshot, f.err
}

func TestResolver_Next(t *testing.T) {
	srv := storeServer(t)
	schema, err := CompileSchema(`^v?(\d+\.\d+)`)
	require.NoError(t, err)

	tests := []struct {
		name     string
		snapshot Snapshot
		want     string
	}{
		{
			name:     "commit after edge build bumps release",
			snapshot: Snapshot{HeadDate: time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC), Describe: "v46.1-3-gabcdef0"},
			want:     "46.1-3",
		},
		{
			name:     "no commit since edge build restarts release",
			snapshot: Snapshot{HeadDate: time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC), Describe: "46.1"},
			want:     "46.1-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(storeClient(srv), fakeInspector{snapshot: &tt.snapshot}, nil)
			res, err := r.Next(context.Background(), "gnome-calculator", "https://github.com/ubuntu/gnome-calculator.git", schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Version)
			assert.Equal(t, Grade, res.Grade)
		})
	}
}

func TestResolver_NextErrors(t *testing.T) {
	srv := storeServer(t)
	schema, err := CompileSchema(`^(\d+\.\d+)`)
	require.NoError(t, err)

	t.Run("schema mismatch", func(t *testing.T) {
		r := NewResolver(storeClient(srv), fakeInspector{snapshot: &Snapshot{Describe: "release-46"}}, nil)
		_, err := r.Next(context.Background(), "gnome-calculator", "https://example.org/a/b.git", schema)
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("no upstream", func(t *testing.T) {
		r := NewResolver(storeClient(srv), fakeInspector{}, nil)
		_, err := r.Next(context.Background(), "gnome-calculator", "", schema)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	})

	t.Run("inspector failure", func(t *testing.T) {
		failure := errors.GitError("clone failed").Build()
		r := NewResolver(storeClient(srv), fakeInspector{err: failure}, nil)
		_, err := r.Next(context.Background(), "gnome-calculator", "https://example.org/a/b.git", schema)
		require.ErrorIs(t, err, failure)
	})
}

func TestCompileSchema(t *testing.T) {
	_, err := CompileSchema(`(`)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = CompileSchema(`^\d+`)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestMatchSchema(t *testing.T) {
	schema, err := CompileSchema(`(\d+\.\d+)`)
	require.NoError(t, err)

	got, ok := MatchSchema(schema, "46.1-2-gabc")
	require.True(t, ok)
	assert.Equal(t, "46.1", got)

	_, ok = MatchSchema(schema, "v46.1")
	assert.False(t, ok, "match must start at the beginning")
}

func TestPackageRelease(t *testing.T) {
	assert.Equal(t, 3, PackageRelease("44.0-3"))
	assert.Equal(t, 12, PackageRelease("12"))
	assert.Equal(t, 0, PackageRelease("44.0-beta"))
	assert.Equal(t, 0, PackageRelease(""))
}

func TestPreviousVersion(t *testing.T) {
	info := &Info{ChannelMap: []Channel{{Version: "44.0-3"}, {Version: "45.0-2"}, {Version: "99.0-1"}}}
	assert.Equal(t, "45.0-2", PreviousVersion(info))
	assert.Equal(t, "", PreviousVersion(&Info{}))
}
