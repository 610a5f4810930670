// Package update checks the release feed for a newer version of the managed
// program and picks a downloadable archive asset.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// Info is the outcome of an update check.
type Info struct {
	LatestVersion string `json:"latest_version"`
	DownloadURL   string `json:"download_url"`
	AssetName     string `json:"asset_name"`
	Available     bool   `json:"is_available"`
}

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Checker queries a GitHub-style releases/latest endpoint.
type Checker struct {
	client    *http.Client
	logger    *zap.Logger
	userAgent string
}

// NewChecker creates a Checker.
func NewChecker(logger *zap.Logger, userAgent string) *Checker {
	if userAgent == "" {
		userAgent = "launchpad-updater"
	}
	return &Checker{
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
		userAgent: userAgent,
	}
}

// Check fetches the latest release and compares it with currentVersion.
// The download URL is only populated when an update is available.
func (c *Checker) Check(ctx context.Context, checkURL, currentVersion string) (*Info, error) {
	rel, err := c.latestRelease(ctx, checkURL)
	if err != nil {
		return nil, err
	}

	latest := strings.TrimPrefix(rel.TagName, "v")

	available, err := CompareVersions(currentVersion, latest)
	if err != nil {
		return nil, err
	}

	info := &Info{
		LatestVersion: latest,
		Available:     available,
	}
	if available {
		name, url := pickAsset(rel.Assets)
		if url == "" {
			c.logger.Warn("release has no supported archive asset",
				zap.String("tag", rel.TagName), zap.Int("assets", len(rel.Assets)))
		}
		info.AssetName = name
		info.DownloadURL = url
	}
	return info, nil
}

// CompareVersions reports whether latest is strictly newer than current.
func CompareVersions(current, latest string) (bool, error) {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("failed to parse current version %q: %w", current, err)
	}
	lat, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, fmt.Errorf("failed to parse latest version %q: %w", latest, err)
	}
	return lat.GreaterThan(cur), nil
}

func (c *Checker) latestRelease(ctx context.Context, url string) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned status: %s", resp.Status)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to parse release feed response: %w", err)
	}
	return &rel, nil
}

// Archive preference order, best first. 7z archives compress tightest and
// are published for every release; the rest are fallbacks.
var assetSuffixes = [][]string{
	{".7z"},
	{".zip"},
	{".tar.gz", ".tgz"},
	{".tar.zst", ".tar.zstd"},
}

func pickAsset(assets []asset) (name, url string) {
	for _, suffixes := range assetSuffixes {
		for _, a := range assets {
			for _, suffix := range suffixes {
				if strings.HasSuffix(a.Name, suffix) {
					return a.Name, a.BrowserDownloadURL
				}
			}
		}
	}
	return "", ""
}
