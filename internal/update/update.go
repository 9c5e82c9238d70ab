// Package update checks GitHub releases for a newer cmdguard. Results are
// cached for a day under the user config directory and the check is skipped
// in CI.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	semver "github.com/blang/semver/v4"
)

const (
	// ReleasesURL is the GitHub endpoint for the latest release.
	ReleasesURL   = "https://api.github.com/repos/varalys/cmdguard/releases/latest"
	cacheFileName = "update.json"
	cacheTTL      = 24 * time.Hour
)

type cache struct {
	LastChecked time.Time `json:"last_checked"`
	Latest      string    `json:"latest"`
}

// Checker looks up the latest release. The zero value is not usable; use
// NewChecker.
type Checker struct {
	URL    string
	Dir    string
	Client *http.Client
}

// NewChecker returns a Checker for the public releases endpoint that caches
// under $XDG_CONFIG_HOME/cmdguard or ~/.config/cmdguard.
func NewChecker() *Checker {
	return &Checker{
		URL:    ReleasesURL,
		Dir:    configDir(),
		Client: &http.Client{Timeout: 2 * time.Second},
	}
}

func configDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "cmdguard")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "cmdguard")
}

func (c *Checker) loadCache() (cache, error) {
	var out cache
	if c.Dir == "" {
		return out, errors.New("no config dir")
	}
	b, err := os.ReadFile(filepath.Join(c.Dir, cacheFileName))
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

func (c *Checker) saveCache(v cache) {
	if c.Dir == "" {
		return
	}
	_ = os.MkdirAll(c.Dir, 0o755)
	b, _ := json.MarshalIndent(v, "", "  ")
	_ = os.WriteFile(filepath.Join(c.Dir, cacheFileName), b, 0o644)
}

func (c *Checker) latestOnline(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "cmdguard-updater")
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: %s", resp.Status)
	}
	var obj struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return "", err
	}
	if obj.TagName != "" {
		return obj.TagName, nil
	}
	return obj.Name, nil
}

// Check returns the latest known version and whether it is newer than
// current. Lookup failures fall back to the cache and are otherwise reported
// as "no newer version".
func (c *Checker) Check(ctx context.Context, current string) (string, bool, error) {
	if os.Getenv("CI") != "" {
		return "", false, nil
	}
	cur, err := semver.ParseTolerant(current)
	if err != nil {
		return "", false, fmt.Errorf("current version %q: %w", current, err)
	}
	cached, _ := c.loadCache()
	latest := cached.Latest
	if latest == "" || time.Since(cached.LastChecked) > cacheTTL {
		if v, err := c.latestOnline(ctx); err == nil {
			if lv, err := semver.ParseTolerant(v); err == nil {
				latest = lv.String()
				c.saveCache(cache{LastChecked: time.Now(), Latest: latest})
			}
		}
	}
	if latest == "" {
		return "", false, nil
	}
	lv, err := semver.ParseTolerant(latest)
	if err != nil {
		return latest, false, nil
	}
	return lv.String(), lv.GT(cur), nil
}
