// Package update checks GitHub releases for a newer CLI version. The
// check is passive: it never replaces the binary, it only reports.
package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/mod/semver"
	"golang.org/x/term"
)

const (
	// Repo is the GitHub repository releases are published from.
	Repo = "forkzero/lattice"

	releaseURL    = "https://api.github.com/repos/" + Repo + "/releases/latest"
	checkInterval = 24 * time.Hour
)

// Release is the subset of the GitHub release payload we read.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckState is the cached result of the last release lookup.
type CheckState struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version"`
	URL           string    `json:"url"`
}

func statePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lattice", "update-check.json")
}

func loadState() *CheckState {
	path := statePath()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var st CheckState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil
	}
	return &st
}

func saveState(st *CheckState) {
	path := statePath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	os.WriteFile(path, data, 0644)
}

// FetchLatest queries the releases API for the newest published tag.
func FetchLatest() (*Release, error) {
	var release Release
	resp, err := resty.New().
		SetTimeout(10 * time.Second).
		R().
		SetHeader("Accept", "application/vnd.github+json").
		SetResult(&release).
		Get(releaseURL)
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("querying releases: status %s", resp.Status())
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release response had no tag")
	}
	return &release, nil
}

// canonical normalizes a tag or version string for semver comparison.
func canonical(v string) string {
	v = strings.TrimPrefix(v, "v")
	return "v" + v
}

// Newer reports whether latest is a strictly newer release than
// current. Unparseable versions never trigger a notice.
func Newer(current, latest string) bool {
	c, l := canonical(current), canonical(latest)
	if !semver.IsValid(c) || !semver.IsValid(l) {
		return false
	}
	return semver.Compare(l, c) > 0
}

// Check looks up the latest release, using the cached result when it
// is fresh enough. It returns the release if one newer than current
// exists, else nil.
func Check(current string, force bool) (*Release, error) {
	st := loadState()
	if !force && st != nil && time.Since(st.CheckedAt) < checkInterval {
		if Newer(current, st.LatestVersion) {
			return &Release{TagName: st.LatestVersion, HTMLURL: st.URL}, nil
		}
		return nil, nil
	}

	release, err := FetchLatest()
	if err != nil {
		return nil, err
	}
	saveState(&CheckState{
		CheckedAt:     time.Now(),
		LatestVersion: release.TagName,
		URL:           release.HTMLURL,
	})
	if Newer(current, release.TagName) {
		return release, nil
	}
	return nil, nil
}

// MaybeNotify prints a one-line upgrade notice to stderr after a
// command runs. Silent on any failure, when stderr is not a terminal,
// or when disabled.
func MaybeNotify(current string, enabled bool) {
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	release, err := Check(current, false)
	if err != nil || release == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "\nA newer lattice release is available: %s (current %s)\n  %s\n",
		release.TagName, current, release.HTMLURL)
}
