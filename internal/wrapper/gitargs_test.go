package wrapper

import (
	"reflect"
	"testing"

	"github.com/attrgit/attrgit/internal/rewrite"
)

func TestParseResetArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantKind     rewrite.Kind
		wantTarget   string
		wantPathspec []string
	}{
		{"bare reset", nil, rewrite.KindResetMixed, "HEAD", nil},
		{"soft to HEAD~1", []string{"--soft", "HEAD~1"}, rewrite.KindResetSoft, "HEAD~1", nil},
		{"hard to sha", []string{"--hard", "abc123"}, rewrite.KindResetHard, "abc123", nil},
		{"mixed is default flag", []string{"--mixed"}, rewrite.KindResetMixed, "HEAD", nil},
		{"with pathspec", []string{"HEAD~2", "--", "a.txt", "b.txt"}, rewrite.KindResetMixed, "HEAD~2", []string{"a.txt", "b.txt"}},
		{"unrecognized flag ignored", []string{"-q", "--hard", "main"}, rewrite.KindResetHard, "main", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, target, pathspec := parseResetArgs(tt.args)
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			if target != tt.wantTarget {
				t.Errorf("target = %q, want %q", target, tt.wantTarget)
			}
			if !reflect.DeepEqual(pathspec, tt.wantPathspec) {
				t.Errorf("pathspec = %v, want %v", pathspec, tt.wantPathspec)
			}
		})
	}
}

func TestSingleCherryPickSource(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantSource string
		wantOK     bool
	}{
		{"single commit", []string{"abc123"}, "abc123", true},
		{"no args", nil, "", false},
		{"multiple commits", []string{"abc123", "def456"}, "", false},
		{"flag present", []string{"-n", "abc123"}, "", false},
		{"continue", []string{"--continue"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, ok := singleCherryPickSource(tt.args)
			if ok != tt.wantOK || source != tt.wantSource {
				t.Errorf("singleCherryPickSource(%v) = (%q, %v), want (%q, %v)", tt.args, source, ok, tt.wantSource, tt.wantOK)
			}
		})
	}
}

func TestFirstVerb(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantVerb string
		wantRest []string
	}{
		{"plain commit", []string{"commit", "-m", "msg"}, "commit", []string{"-m", "msg"}},
		{"global flag value treated as verb", []string{"-C", "/tmp", "status"}, "/tmp", []string{"status"}}, // firstVerb does not itself skip global flags
		{"no verb", []string{"-h"}, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verb, rest := firstVerb(tt.args)
			if verb != tt.wantVerb {
				t.Errorf("verb = %q, want %q", verb, tt.wantVerb)
			}
			_ = rest
		})
	}
}

func TestSplitGlobalArgs(t *testing.T) {
	global, rest := splitGlobalArgs([]string{"-C", "/repo", "-c", "core.x=1", "commit", "-m", "msg"})
	wantGlobal := []string{"-C", "/repo", "-c", "core.x=1"}
	if !reflect.DeepEqual([]string(global), wantGlobal) {
		t.Errorf("global = %v, want %v", global, wantGlobal)
	}
	wantRest := []string{"commit", "-m", "msg"}
	if !reflect.DeepEqual(rest, wantRest) {
		t.Errorf("rest = %v, want %v", rest, wantRest)
	}
}
