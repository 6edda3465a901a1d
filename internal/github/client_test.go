// internal/github/client_test.go
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/common/config"
	"pagesmith/internal/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.GitHubConfig{
		BaseURL: baseURL,
		Token:   "test-token",
		Owner:   "octo",
		Branch:  "main",
		Timeout: 5000,
	})
}

func TestCreateRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "demo", payload["name"])
		assert.Equal(t, false, payload["private"])
		assert.Equal(t, true, payload["auto_init"])
		assert.Equal(t, "mit", payload["license_template"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"full_name": "octo/demo",
			"html_url":  "https://github.com/octo/demo",
		})
	}))
	defer srv.Close()

	handle, err := newTestClient(srv.URL).CreateRepository(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "octo/demo", handle.FullName)
	assert.Equal(t, "https://github.com/octo/demo", handle.HTMLURL)
}

func TestCreateRepository_Collision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "name already exists on this account"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateRepository(context.Background(), "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "name already exists")
}

func TestUploadFile_NewFile(t *testing.T) {
	// First push: the content read 404s, so the PUT carries no sha.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/contents/index.html", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			_, hasSHA := payload["sha"]
			assert.False(t, hasSHA)

			decoded, err := base64.StdEncoding.DecodeString(payload["content"].(string))
			require.NoError(t, err)
			assert.Equal(t, "<html></html>", string(decoded))

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UploadFile(context.Background(), "octo/demo", models.GeneratedFile{
		Path:    "index.html",
		Content: "<html></html>",
	})
	require.NoError(t, err)
}

func TestUploadFile_ExistingFile(t *testing.T) {
	// Second push: the read returns the current blob sha and the PUT must
	// carry it, and a 200 on update is success.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"sha": "abc123"}`))
		case http.MethodPut:
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "abc123", payload["sha"])

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UploadFile(context.Background(), "octo/demo", models.GeneratedFile{
		Path:    "index.html",
		Content: "<html></html>",
	})
	require.NoError(t, err)
}

func TestUploadFile_PushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message": "conflict"}`))
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UploadFile(context.Background(), "octo/demo", models.GeneratedFile{
		Path:    "index.html",
		Content: "x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestUploadFile_PathIsEscaped(t *testing.T) {
	// Generated paths are not trusted to be URL-safe.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/contents/assets/my%20page%231.html", r.URL.EscapedPath())

		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UploadFile(context.Background(), "octo/demo", models.GeneratedFile{
		Path:    "assets/my page#1.html",
		Content: "x",
	})
	require.NoError(t, err)
}

func TestEnablePages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/demo/pages", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		source := payload["source"].(map[string]interface{})
		assert.Equal(t, "main", source["branch"])
		assert.Equal(t, "/", source["path"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"html_url": "https://octo.github.io/demo/",
		})
	}))
	defer srv.Close()

	handle, err := newTestClient(srv.URL).EnablePages(context.Background(), "octo/demo")
	require.NoError(t, err)
	assert.Equal(t, "https://octo.github.io/demo/", handle.PagesURL)
}

func TestGetLatestCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/octo/demo/commits/main", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"sha": "0123456789abcdef0123456789abcdef01234567",
		})
	}))
	defer srv.Close()

	sha, err := newTestClient(srv.URL).GetLatestCommit(context.Background(), "octo/demo")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", sha)
}

func TestGetLatestCommit_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetLatestCommit(context.Background(), "octo/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
