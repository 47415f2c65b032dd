// Package updater checks a GitHub-style releases endpoint for a newer build.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/PTCG-Inventory/internal/version"
)

const (
	// DefaultAPIBaseURL is the public GitHub API.
	DefaultAPIBaseURL = "https://api.github.com"

	requestTimeout = 15 * time.Second
	checkInterval  = time.Minute
)

// platformExtensions lists installer extensions per GOOS, in preference order.
var platformExtensions = map[string][]string{
	"windows": {".msi", ".exe"},
	"darwin":  {".dmg"},
	"linux":   {".deb", ".AppImage"},
	"android": {".apk"},
}

// Asset is a downloadable release artifact.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Release describes the latest published release.
type Release struct {
	Version         string `json:"version"`
	URL             string `json:"url"`
	Asset           *Asset `json:"asset,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
}

// latestRelease is the releases/latest response body.
type latestRelease struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Options configures a Checker.
type Options struct {
	APIBaseURL     string
	Owner          string
	Repo           string
	CurrentVersion string // Defaults to version.GetVersion()
	GOOS           string // Defaults to runtime.GOOS
	Timeout        time.Duration
}

// Checker queries the latest release.
type Checker struct {
	baseURL     string
	owner       string
	repo        string
	current     string
	goos        string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewChecker creates a release checker.
func NewChecker(opts Options) *Checker {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.CurrentVersion == "" {
		opts.CurrentVersion = version.GetVersion()
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Timeout <= 0 {
		opts.Timeout = requestTimeout
	}

	return &Checker{
		baseURL:     strings.TrimRight(opts.APIBaseURL, "/"),
		owner:       opts.Owner,
		repo:        opts.Repo,
		current:     opts.CurrentVersion,
		goos:        opts.GOOS,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		rateLimiter: rate.NewLimiter(rate.Every(checkInterval), 2),
	}
}

// Check fetches the latest release and compares it with the running version.
func (c *Checker) Check(ctx context.Context) (*Release, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "PTCG-Inventory/"+c.current)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("release check returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var latest latestRelease
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("failed to parse release: %w", err)
	}
	if latest.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}

	return &Release{
		Version:         strings.TrimPrefix(latest.TagName, "v"),
		URL:             latest.HTMLURL,
		Asset:           pickAsset(latest.Assets, c.goos),
		UpdateAvailable: version.IsNewer(latest.TagName, c.current),
	}, nil
}

// pickAsset returns the first asset built for goos, or nil.
func pickAsset(assets []Asset, goos string) *Asset {
	for _, ext := range platformExtensions[goos] {
		for i := range assets {
			if strings.HasSuffix(strings.ToLower(assets[i].Name), strings.ToLower(ext)) {
				a := assets[i]
				return &a
			}
		}
	}
	return nil
}
