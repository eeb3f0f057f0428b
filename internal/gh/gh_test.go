package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ghc := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base
	ghc.UploadURL = base

	client, err := NewWithClient(ghc, "jovyan123-playground/demo")
	require.NoError(t, err)
	return client
}

func TestParseReleaseURL(t *testing.T) {
	tests := map[string]struct {
		url     string
		owner   string
		repo    string
		tag     string
		wantErr bool
	}{
		"html url": {
			url:   "https://github.com/foo/bar/releases/tag/v1.0.1",
			owner: "foo", repo: "bar", tag: "v1.0.1",
		},
		"api url": {
			url:   "https://api.github.com/repos/foo/bar/releases/tags/v1.0.1",
			owner: "foo", repo: "bar", tag: "v1.0.1",
		},
		"tag with slash-free prerelease": {
			url:   "https://github.com/foo/bar/releases/tag/v2.0.0rc0",
			owner: "foo", repo: "bar", tag: "v2.0.0rc0",
		},
		"not a release url": {
			url:     "https://github.com/foo/bar/pull/12",
			wantErr: true,
		},
		"empty": {
			url:     "",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			owner, repo, tag, err := ParseReleaseURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
			assert.Equal(t, tc.tag, tag)
		})
	}
}

func TestNewWithClientRejectsBadSlug(t *testing.T) {
	_, err := NewWithClient(github.NewClient(nil), "not-a-slug")
	require.Error(t, err)

	_, err = NewWithClient(github.NewClient(nil), "owner/")
	require.Error(t, err)
}

func TestMergedPullsSince(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		assert.Contains(t, query, "repo:jovyan123-playground/demo")
		assert.Contains(t, query, "is:pr is:merged")
		assert.Contains(t, query, "base:main")
		assert.Contains(t, query, "merged:>=2026-01-02T00:00:00Z")

		fmt.Fprint(w, `{"total_count": 2, "items": [
			{"number": 10, "title": "Add feature", "html_url": "https://github.com/jovyan123-playground/demo/pull/10",
			 "user": {"login": "alice", "html_url": "https://github.com/alice"}},
			{"number": 12, "title": "Fix bug", "html_url": "https://github.com/jovyan123-playground/demo/pull/12",
			 "user": {"login": "bob", "html_url": "https://github.com/bob"}}
		]}`)
	})

	client := newTestClient(t, mux)
	pulls, err := client.MergedPullsSince(context.Background(), "main",
		mustTime(t, "2026-01-02T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.Equal(t, 10, pulls[0].Number)
	assert.Equal(t, "Add feature", pulls[0].Title)
	assert.Equal(t, "alice", pulls[0].UserLogin)
	assert.Equal(t, "https://github.com/bob", pulls[1].UserURL)
}

func TestPullRequestByNumber(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 42, "title": "Original change",
			"html_url": "https://github.com/jovyan123-playground/demo/pull/42",
			"user": {"login": "carol", "html_url": "https://github.com/carol"}}`)
	})

	client := newTestClient(t, mux)
	pr, err := client.PullRequestByNumber(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, "Original change", pr.Title)
	assert.Equal(t, "carol", pr.UserLogin)
}

func TestCreatePull(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Automated Changelog Entry 1.0.1 on main", body["title"])
		assert.Equal(t, "main", body["base"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 7, "html_url": "https://github.com/jovyan123-playground/demo/pull/7"}`)
	})

	client := newTestClient(t, mux)
	url, err := client.CreatePull(context.Background(),
		"Automated Changelog Entry 1.0.1 on main", "changelog-1-0-1", "main", "body text")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/jovyan123-playground/demo/pull/7", url)
}

func TestReleaseForURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 1, "tag_name": "v1.0.0", "draft": false,
			 "html_url": "https://github.com/jovyan123-playground/demo/releases/tag/v1.0.0",
			 "url": "https://api.github.com/repos/jovyan123-playground/demo/releases/1"},
			{"id": 2, "tag_name": "v1.0.1", "draft": true, "prerelease": false,
			 "html_url": "https://github.com/jovyan123-playground/demo/releases/tag/untagged-abc",
			 "url": "https://api.github.com/repos/jovyan123-playground/demo/releases/2",
			 "assets": [{"id": 9, "name": "demo-1.0.1.tar.gz"}]}
		]`)
	})

	client := newTestClient(t, mux)
	rel, err := client.ReleaseForURL(context.Background(),
		"https://github.com/jovyan123-playground/demo/releases/tag/untagged-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rel.ID)
	assert.True(t, rel.Draft)
	require.Len(t, rel.Assets, 1)
	assert.Equal(t, "demo-1.0.1.tar.gz", rel.Assets[0].Name)

	_, err = client.ReleaseForURL(context.Background(),
		"https://github.com/jovyan123-playground/demo/releases/tag/v9.9.9")
	require.Error(t, err)
}

func TestCreateReleaseUploadsAssets(t *testing.T) {
	asset := t.TempDir() + "/demo-1.0.1.tar.gz"
	require.NoError(t, writeFile(asset, "tarball bytes"))

	var uploaded []string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v1.0.1", body["tag_name"])
		assert.Equal(t, true, body["draft"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 5, "tag_name": "v1.0.1", "draft": true,
			"html_url": "https://github.com/jovyan123-playground/demo/releases/tag/untagged-xyz"}`)
	})
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases/5/assets", func(w http.ResponseWriter, r *http.Request) {
		uploaded = append(uploaded, r.URL.Query().Get("name"))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 11, "name": "demo-1.0.1.tar.gz"}`)
	})

	client := newTestClient(t, mux)
	rel, err := client.CreateRelease(context.Background(),
		"v1.0.1", "main", "v1.0.1", "changelog body", true, false, []string{asset})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rel.ID)
	assert.Equal(t, []string{"demo-1.0.1.tar.gz"}, uploaded)
}

func TestSetReleaseDraft(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases/5", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["draft"])
		assert.Equal(t, "v1.0.1", body["tag_name"])

		fmt.Fprint(w, `{"id": 5, "tag_name": "v1.0.1", "draft": false,
			"html_url": "https://github.com/jovyan123-playground/demo/releases/tag/v1.0.1"}`)
	})

	client := newTestClient(t, mux)
	rel, err := client.SetReleaseDraft(context.Background(),
		Release{ID: 5, TagName: "v1.0.1", Draft: true}, false)
	require.NoError(t, err)
	assert.False(t, rel.Draft)
	assert.Equal(t, "https://github.com/jovyan123-playground/demo/releases/tag/v1.0.1", rel.HTMLURL)
}

func TestDeleteReleaseRemovesAssetsFirst(t *testing.T) {
	var order []string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases/assets/9", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		order = append(order, "asset")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases/5", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		order = append(order, "release")
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)
	err := client.DeleteRelease(context.Background(), Release{
		ID: 5, TagName: "v1.0.1",
		Assets: []Asset{{ID: 9, Name: "demo-1.0.1.tar.gz"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"asset", "release"}, order)
}

func TestDownloadAsset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/releases/assets/9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, "tarball bytes")
	})

	client := newTestClient(t, mux)
	dest := t.TempDir() + "/demo-1.0.1.tar.gz"
	err := client.DownloadAsset(context.Background(), Asset{ID: 9, Name: "demo-1.0.1.tar.gz"}, dest)
	require.NoError(t, err)

	data, err := readFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "tarball bytes", data)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func TestTagCommitMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jovyan123-playground/demo/commits/v1.0.1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha": "abc123", "commit": {"message": "Publish 1.0.1\n\nSHA256 hashes:\ndemo-1.0.1.tar.gz: deadbeef"}}`)
	})

	client := newTestClient(t, mux)
	msg, err := client.TagCommitMessage(context.Background(), "v1.0.1")
	require.NoError(t, err)
	assert.Contains(t, msg, "SHA256 hashes:")
	assert.Contains(t, msg, "demo-1.0.1.tar.gz: deadbeef")
}
