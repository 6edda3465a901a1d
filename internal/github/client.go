// internal/github/client.go
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pagesmith/internal/common/config"
	httpclient "pagesmith/internal/common/http"
	"pagesmith/internal/models"
)

// Client wraps the four repository-hosting operations the pipeline needs.
// Every operation is a single round-trip that fails fast on an unexpected
// status, with the remote error body carried in the returned error.
type Client struct {
	token      string
	owner      string
	branch     string
	baseURL    string
	httpClient *httpclient.Client
}

func NewClient(cfg config.GitHubConfig) *Client {
	return &Client{
		token:      cfg.Token,
		owner:      cfg.Owner,
		branch:     cfg.Branch,
		baseURL:    cfg.BaseURL,
		httpClient: httpclient.NewClient(config.GetDuration(cfg.Timeout)),
	}
}

// Owner returns the authenticated account name repositories are created under.
func (c *Client) Owner() string {
	return c.owner
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.token,
		"Accept":        "application/vnd.github+json",
	}
}

// CreateRepository creates a public, auto-initialized repository with an MIT
// license under the authenticated account. A name collision surfaces as the
// remote's error body.
func (c *Client) CreateRepository(ctx context.Context, name string) (*models.RepoHandle, error) {
	url := fmt.Sprintf("%s/user/repos", c.baseURL)

	payload := map[string]interface{}{
		"name":             name,
		"private":          false,
		"auto_init":        true,
		"license_template": "mit",
	}

	status, body, err := c.httpClient.DoJSON(ctx, http.MethodPost, url, payload, c.headers())
	if err != nil {
		return nil, fmt.Errorf("failed to create repo %s: %w", name, err)
	}

	if status != http.StatusCreated {
		return nil, fmt.Errorf("failed to create repo %s (status %d): %s", name, status, string(body))
	}

	var handle models.RepoHandle
	if err := json.Unmarshal(body, &handle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal create repo response: %w", err)
	}

	return &handle, nil
}

// UploadFile creates or updates one file at the repository root. The current
// blob SHA is read first so an existing file can be replaced without a
// lost-update conflict; a 404 on the read means the file does not exist yet.
func (c *Client) UploadFile(ctx context.Context, fullName string, file models.GeneratedFile) error {
	contentURL := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, escapePath(file.Path))

	status, body, err := c.httpClient.DoJSON(ctx, http.MethodGet, contentURL, nil, c.headers())
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", file.Path, err)
	}

	payload := map[string]interface{}{
		"message": fmt.Sprintf("Update %s", file.Path),
		"content": base64.StdEncoding.EncodeToString([]byte(file.Content)),
	}

	if status == http.StatusOK {
		var existing struct {
			SHA string `json:"sha"`
		}
		if err := json.Unmarshal(body, &existing); err != nil {
			return fmt.Errorf("failed to unmarshal existing file %s: %w", file.Path, err)
		}
		if existing.SHA != "" {
			payload["sha"] = existing.SHA
		}
	}

	status, body, err = c.httpClient.DoJSON(ctx, http.MethodPut, contentURL, payload, c.headers())
	if err != nil {
		return fmt.Errorf("failed to push file %s: %w", file.Path, err)
	}

	// The contents API answers 201 for creates and 200 for updates.
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("failed to push file %s (status %d): %s", file.Path, status, string(body))
	}

	return nil
}

// escapePath escapes each segment of a repository file path so generated
// names with spaces or reserved characters form a valid request URL.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// EnablePages configures static hosting to serve the default branch root.
func (c *Client) EnablePages(ctx context.Context, fullName string) (*models.RepoHandle, error) {
	url := fmt.Sprintf("%s/repos/%s/pages", c.baseURL, fullName)

	payload := map[string]interface{}{
		"source": map[string]string{"branch": c.branch, "path": "/"},
	}

	status, body, err := c.httpClient.DoJSON(ctx, http.MethodPost, url, payload, c.headers())
	if err != nil {
		return nil, fmt.Errorf("failed to enable pages for %s: %w", fullName, err)
	}

	if status != http.StatusCreated {
		return nil, fmt.Errorf("failed to enable pages for %s (status %d): %s", fullName, status, string(body))
	}

	var pages struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pages response: %w", err)
	}

	return &models.RepoHandle{FullName: fullName, PagesURL: pages.HTMLURL}, nil
}

// GetLatestCommit resolves the tip commit SHA of the configured branch.
func (c *Client) GetLatestCommit(ctx context.Context, fullName string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/commits/%s", c.baseURL, fullName, c.branch)

	status, body, err := c.httpClient.DoJSON(ctx, http.MethodGet, url, nil, c.headers())
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit for %s: %w", fullName, err)
	}

	if status != http.StatusOK {
		return "", fmt.Errorf("failed to get latest commit for %s (status %d): %s", fullName, status, string(body))
	}

	var commit struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(body, &commit); err != nil {
		return "", fmt.Errorf("failed to unmarshal commit response: %w", err)
	}

	return commit.SHA, nil
}
