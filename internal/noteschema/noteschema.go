// Package noteschema holds the wire types shared by a checkpoint record and
// a published authorship note: the agent identity and conversation
// transcript shapes are identical in both documents (spec §6), so both
// internal/workinglog and internal/authorshiplog build on this package
// instead of duplicating the JSON schema.
package noteschema

import "github.com/attrgit/attrgit/internal/attribution"

// AgentID identifies the tool, session, and model behind an AI checkpoint or attestation.
type AgentID struct {
	Tool  string `json:"tool"`
	ID    string `json:"id"`
	Model string `json:"model"`
}

// Message is one turn of an agent conversation transcript.
type Message struct {
	Role string `json:"role"` // "User" or "Assistant"
	Text string `json:"text"`
	// Timestamp is an optional RFC3339 string; omitted when unknown.
	Timestamp string `json:"timestamp,omitempty"`
}

// Transcript is the conversation captured alongside an AI checkpoint.
type Transcript struct {
	Messages []Message `json:"messages"`
}

// AuthorshipLog is the published, commit-attached document attached to
// refs/notes/ai/<commit>.
type AuthorshipLog struct {
	Attestations []FileAttestation `json:"attestations"`
	Metadata     Metadata          `json:"metadata"`
}

// FileAttestation is one file's list of (hash, line_ranges) attestations.
type FileAttestation struct {
	FilePath string             `json:"file_path"`
	Entries  []AttestationEntry `json:"entries"`
}

// AttestationEntry attributes a set of line ranges to an author hash (an AI
// prompt hash, or attribution.HumanAuthorID for human-written lines).
type AttestationEntry struct {
	Hash       string                  `json:"hash"`
	LineRanges []attribution.LineRange `json:"line_ranges"`
}

// Metadata carries per-prompt detail and the commit's human author, keyed by
// the hashes referenced from Attestations.
type Metadata struct {
	Prompts     map[string]PromptRecord `json:"prompts"`
	BaseCommit  string                  `json:"base_commit"`
	HumanAuthor string                  `json:"human_author"`
}

// PromptRecord is the detail behind one attestation hash.
type PromptRecord struct {
	Messages       []Message `json:"messages"`
	AgentID        *AgentID  `json:"agent_id,omitempty"`
	OverridenLines int       `json:"overriden_lines"`
	HumanAuthor    string    `json:"human_author"`
}

// FindFile returns the attestation for path, if present.
func (l *AuthorshipLog) FindFile(path string) (*FileAttestation, bool) {
	for i := range l.Attestations {
		if l.Attestations[i].FilePath == path {
			return &l.Attestations[i], true
		}
	}
	return nil, false
}
