package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase = "https://api.github.com"
	defaultRawBase = "https://raw.githubusercontent.com"

	requestTimeout = 30 * time.Second
)

// Client is a thin wrapper over the GitHub REST v3 API. Calls carry an
// optional bearer token; without one, raw file content is fetched from the
// direct raw endpoint to avoid API rate limits. Failures are classified
// (see APIError), never retried internally.
type Client struct {
	APIBase    string
	RawBase    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(userAgent string) *Client {
	return &Client{
		APIBase:    defaultAPIBase,
		RawBase:    defaultRawBase,
		httpClient: &http.Client{Timeout: requestTimeout},
		userAgent:  userAgent,
	}
}

type RepoInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
}

type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// GetRepoInfo fetches repository metadata. Also used as the dry call for
// credential validation.
func (c *Client) GetRepoInfo(ctx context.Context, owner, repo, token string) (*RepoInfo, error) {
	resource := fmt.Sprintf("repos/%s/%s", owner, repo)
	body, err := c.doAPI(ctx, "/repos/"+owner+"/"+repo, token, resource)
	if err != nil {
		return nil, err
	}

	var info RepoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &info, nil
}

// GetLatestCommitSHA returns the head revision id of a branch.
func (c *Client) GetLatestCommitSHA(ctx context.Context, owner, repo, branch, token string) (string, error) {
	resource := fmt.Sprintf("commits/%s/%s@%s", owner, repo, branch)
	body, err := c.doAPI(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, branch), token, resource)
	if err != nil {
		return "", err
	}

	var commit struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(body, &commit); err != nil {
		return "", &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return commit.SHA, nil
}

// GetTree lists the full repository tree at the given revision, recursively.
func (c *Client) GetTree(ctx context.Context, owner, repo, sha, token string) ([]TreeEntry, error) {
	resource := fmt.Sprintf("tree/%s/%s@%s", owner, repo, sha)
	body, err := c.doAPI(ctx, fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, sha), token, resource)
	if err != nil {
		return nil, err
	}

	var tree struct {
		Tree []TreeEntry `json:"tree"`
	}
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return tree.Tree, nil
}

// GetFileBytes fetches raw file content. Unauthenticated fetches use the
// direct raw-content endpoint and report the served content type;
// authenticated fetches go through the contents API, which returns a base64
// payload and no usable content type.
func (c *Client) GetFileBytes(ctx context.Context, owner, repo, path, token string) ([]byte, string, error) {
	if token == "" {
		return c.getRawFile(ctx, owner, repo, path)
	}

	resource := fmt.Sprintf("contents/%s/%s/%s", owner, repo, path)
	body, err := c.doAPI(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path), token, resource)
	if err != nil {
		return nil, "", err
	}

	var content struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if content.Encoding != "base64" {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("unexpected content encoding %q", content.Encoding)}
	}

	// The contents API wraps base64 lines at 60 characters.
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to decode content: %w", err)}
	}
	return data, "", nil
}

// GetFileContent fetches a file and decodes it as UTF-8 text.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, token string) (string, error) {
	data, _, err := c.GetFileBytes(ctx, owner, repo, path, token)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) getRawFile(ctx context.Context, owner, repo, path string) ([]byte, string, error) {
	resource := fmt.Sprintf("raw/%s/%s/%s", owner, repo, path)
	url := fmt.Sprintf("%s/%s/%s/HEAD/%s", c.RawBase, owner, repo, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &APIError{Kind: classify(resp.StatusCode), StatusCode: resp.StatusCode, Resource: resource}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) doAPI(ctx context.Context, path, token, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBase+path, nil)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Resource: resource, Err: err}
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Kind: classify(resp.StatusCode), StatusCode: resp.StatusCode, Resource: resource}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Resource: resource, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return body, nil
}
