package versioncheck

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.1.0", true},
		{"1.0.0", "2.0.0", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"v1.0.0", "v1.0.1", true},
		{"v1.0.0", "1.0.1", true},
		{"1.0.0", "v1.0.1", true},
	}
	for _, tt := range tests {
		if got := isOutdated(tt.current, tt.latest); got != tt.want {
			t.Errorf("isOutdated(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestParseGitHubRelease(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid release", `{"tag_name": "v1.2.3", "prerelease": false}`, "v1.2.3", false},
		{"prerelease", `{"tag_name": "v2.0.0-rc1", "prerelease": true}`, "", true},
		{"empty tag", `{"tag_name": "", "prerelease": false}`, "", true},
		{"invalid json", `not json`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGitHubRelease([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGitHubRelease() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseGitHubRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckAndNotifyPrintsWhenOutdated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GitHubRelease{TagName: "v9.9.9"})
	}))
	defer server.Close()

	t.Setenv("HOME", t.TempDir())
	original := githubAPIURL
	githubAPIURL = server.URL
	t.Cleanup(func() { githubAPIURL = original })

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&buf)

	CheckAndNotify(cmd, "v0.1.0")

	if got := buf.String(); !bytes.Contains([]byte(got), []byte("v9.9.9")) {
		t.Errorf("expected notification mentioning v9.9.9, got %q", got)
	}
}

func TestCheckAndNotifySkipsHiddenAndDevBuilds(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	hidden := &cobra.Command{Use: "test", Hidden: true}
	hidden.SetOut(&buf)
	CheckAndNotify(hidden, "v0.1.0")

	dev := &cobra.Command{Use: "test"}
	dev.SetOut(&buf)
	CheckAndNotify(dev, "dev")

	if buf.Len() != 0 {
		t.Errorf("expected no output for hidden/dev commands, got %q", buf.String())
	}
}
