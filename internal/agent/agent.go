// Package agent converts an AI coding tool's native hook payload into the
// AgentID and Transcript shapes a checkpoint attaches (spec §4.7). Each
// supported tool (Claude Code, Gemini CLI) parses its own hook JSON and its
// own on-disk session transcript format, but produces the same normalized
// noteschema types so internal/workinglog never has to know which tool ran.
package agent

import "github.com/attrgit/attrgit/internal/noteschema"

// Source is implemented once per supported AI coding tool.
type Source interface {
	// Name identifies the tool; stored verbatim as AgentID.Tool.
	Name() string

	// ParseSession reads a hook's raw stdin payload, locates and parses the
	// tool's own session transcript file, and returns the identity and
	// conversation content to attach to a checkpoint. Transcript content is
	// redacted before it is returned.
	ParseSession(raw []byte) (noteschema.AgentID, noteschema.Transcript, error)
}

var sources = map[string]Source{}

// register adds a Source to the dispatch table, keyed by its Name().
func register(s Source) {
	sources[s.Name()] = s
}

// Get looks up a registered Source by tool name, as recorded in a checkpoint's
// AgentID.Tool or passed on the `attrgit hooks agent <tool> ...` command line.
func Get(name string) (Source, bool) {
	s, ok := sources[name]
	return s, ok
}

// Names lists every registered tool name, sorted for stable CLI help text.
func Names() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	return names
}
