package versioncheck

import "time"

// VersionCache is the on-disk record of the last update check, so attrgit
// asks GitHub at most once per checkInterval regardless of how often it runs.
type VersionCache struct {
	LastCheckTime time.Time `json:"last_check_time"`
}

// GitHubRelease is the subset of GitHub's release API response this package reads.
type GitHubRelease struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
}

// githubAPIURL is the GitHub API endpoint for fetching the latest release.
// Reassigned in tests to point at a local server.
var githubAPIURL = "https://api.github.com/repos/attrgit/attrgit/releases/latest"

const (
	// checkInterval is the minimum duration between version checks.
	checkInterval = 24 * time.Hour

	// httpTimeout is the timeout for the GitHub API request; a slow network
	// must never delay the wrapped git command's exit.
	httpTimeout = 2 * time.Second

	// cacheFileName is the name of the cache file in the global config directory.
	cacheFileName = "version_check.json"

	// globalConfigDirName is the global config directory, relative to $HOME.
	globalConfigDirName = ".config/attrgit"
)
