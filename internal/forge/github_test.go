package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/retry"
	"git.home.luguber.info/inful/updatesnap/internal/versioning"
)

type fakeGitHub struct {
	srv       *httptest.Server
	pages     atomic.Int32
	lastAuth  atomic.Value
	commitHit atomic.Int32
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	mux := http.NewServeMux()

	tag := func(name, sha string) map[string]any {
		return map[string]any{
			"name":   name,
			"commit": map[string]string{"sha": sha, "url": f.srv.URL + "/commits/" + sha},
		}
	}
	dates := map[string]string{
		"a1": "2023-03-17T20:17:18Z",
		"a2": "2023-03-03T20:00:00Z",
		"a3": "2022-09-16T17:40:01Z",
		"a4": "2022-07-01T20:15:12Z",
		"a5": "2022-05-27T16:00:00Z",
	}

	mux.HandleFunc("/repos/GNOME/gnome-calculator/tags", func(w http.ResponseWriter, r *http.Request) {
		f.pages.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))
		var body []map[string]any
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/GNOME/gnome-calculator/tags?sort=created&direction=desc&page=2>; rel="next", <%s/x?page=9>; rel="last"`, f.srv.URL, f.srv.URL))
			body = []map[string]any{tag("44.0", "a1"), tag("44.rc", "a2"), tag("43.0.1", "a3")}
		case "2":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/GNOME/gnome-calculator/tags?sort=created&direction=desc&page=3>; rel="next"`, f.srv.URL))
			body = []map[string]any{tag("42.2", "a4"), tag("42.1", "a5")}
		default:
			t.Errorf("unexpected page request %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/commits/", func(w http.ResponseWriter, r *http.Request) {
		f.commitHit.Add(1)
		sha := r.URL.Path[len("/commits/"):]
		commit := map[string]any{"author": map[string]string{"date": "2000-01-01T00:00:00Z"}}
		if sha != "a5" {
			commit["committer"] = map[string]string{"date": dates[sha]}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"commit": commit})
	})
	mux.HandleFunc("/repos/GNOME/gnome-calculator/branches", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"main","commit":{"sha":"b1"}},{"name":"gnome-44","commit":{"sha":"b2"}}]`))
	})
	mux.HandleFunc("/repos/GNOME/gnome-calculator/contents/snap/snapcraft.yaml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stable", r.URL.Query().Get("ref"))
		encoded := base64.StdEncoding.EncodeToString([]byte("name: gnome-calculator\n"))
		_ = json.NewEncoder(w).Encode(map[string]string{"content": encoded[:8] + "\n" + encoded[8:], "encoding": "base64"})
	})
	mux.HandleFunc("/repos/GNOME/gnome-calculator/contents/snapcraft.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) client(user, token string) *GitHubClient {
	return NewGitHubClient(user, token, Options{GitHubAPIURL: f.srv.URL, Retry: retry.NoRetry()})
}

func calculatorRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := ParseRepository("https://github.com/GNOME/gnome-calculator.git")
	require.NoError(t, err)
	return repo
}

func TestGitHubClient_ListTagsStopsAtPinned(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client("user", "secret")

	spec := &versioning.FormatSpec{Format: "%M.%m"}
	tags, err := c.ListTags(context.Background(), calculatorRepo(t), "42.2", spec)
	require.NoError(t, err)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"44.0", "43.0.1", "42.2"}, names)
	assert.Equal(t, int32(2), f.pages.Load())
	assert.Equal(t, int32(3), f.commitHit.Load())

	assert.Equal(t, time.Date(2023, 3, 17, 20, 17, 18, 0, time.UTC), tags[0].Date.UTC())
	assert.Equal(t, "a1", tags[0].CommitSHA)
	assert.Equal(t, versioning.ReferenceTag, tags[0].Type)

	user, pass, ok := (&http.Request{Header: http.Header{"Authorization": {f.lastAuth.Load().(string)}}}).BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "user", user)
	assert.Equal(t, "secret", pass)
}

func TestGitHubClient_ListTagsWithoutFormatKeepsAll(t *testing.T) {
	f := newFakeGitHub(t)
	tags, err := f.client("", "tok").ListTags(context.Background(), calculatorRepo(t), "42.1", nil)
	require.NoError(t, err)
	require.Len(t, tags, 5)
	assert.Equal(t, "Bearer tok", f.lastAuth.Load())
	// a5 has no committer date and falls back to the author date.
	assert.Equal(t, 2000, tags[4].Date.Year())
}

func TestGitHubClient_ListBranches(t *testing.T) {
	f := newFakeGitHub(t)
	branches, err := f.client("", "").ListBranches(context.Background(), calculatorRepo(t))
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "main", branches[0].Name)
	assert.Equal(t, versioning.ReferenceBranch, branches[0].Type)
	assert.True(t, branches[0].Date.IsZero())
}

func TestGitHubClient_FetchFile(t *testing.T) {
	f := newFakeGitHub(t)
	c := f.client("", "")

	data, err := c.FetchFile(context.Background(), calculatorRepo(t), "stable", "snap/snapcraft.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: gnome-calculator\n", string(data))

	_, err = c.FetchFile(context.Background(), calculatorRepo(t), "", "snapcraft.yaml")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestGitHubClient_Recognizes(t *testing.T) {
	c := NewGitHubClient("", "", Options{})
	for host, want := range map[string]bool{
		"github.com":      true,
		"www.github.com":  true,
		"gitlab.com":      false,
		"gist.github.com": false,
	} {
		repo, err := ParseRepository("https://" + host + "/a/b")
		require.NoError(t, err)
		assert.Equal(t, want, c.Recognizes(repo.URL), host)
	}
}
