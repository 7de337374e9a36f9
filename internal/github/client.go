package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL is the GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

const userAgent = "pcmgen"

// Asset is a named downloadable blob attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is a tagged group of downloadable assets. CreatedAt is kept as the
// raw RFC 3339 string the API returns; it is only ever used as a sort key.
type Release struct {
	TagName   string  `json:"tag_name"`
	CreatedAt string  `json:"created_at"`
	Assets    []Asset `json:"assets"`
}

// Client talks to the GitHub releases API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a client. An empty token means unauthenticated requests.
func NewClient(token string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// TokenFromEnv returns the access token from GITHUB_TOKEN, falling back to
// GH_TOKEN.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GH_TOKEN"))
}

// ListReleases lists all releases of owner/repo, newest first by creation
// time. The sort is stable, so releases with equal timestamps keep the API's
// original order.
func (c *Client) ListReleases(ctx context.Context, ownerRepo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", c.BaseURL, ownerRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing releases for %s: %w", ownerRepo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing releases for %s: HTTP %d", ownerRepo, resp.StatusCode)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decoding releases for %s: %w", ownerRepo, err)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].CreatedAt > releases[j].CreatedAt
	})

	return releases, nil
}

// Download fetches the full body of an asset. Asset downloads go through the
// public browser URL, so no auth header is attached.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// DownloadURL builds the canonical release-asset download URL for a tag and
// asset name.
func DownloadURL(ownerRepo, tag, assetName string) string {
	owner, repo, _ := strings.Cut(ownerRepo, "/")
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", owner, repo, tag, assetName)
}
