// Package authorshiplog builds the published, commit-attached AuthorshipLog
// from a working log and attaches it as a git note (spec §4.5).
package authorshiplog

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/attrgit/attrgit/internal/workinglog"
)

// PromptHash deterministically identifies an AI checkpoint's contribution by
// its transcript content and tool/model, so that two checkpoints with
// identical conversations (even across different sessions) publish under
// the same attestation hash.
func PromptHash(cp workinglog.Checkpoint) string {
	h := sha256.New()
	if cp.AgentID != nil {
		h.Write([]byte(cp.AgentID.Tool))
		h.Write([]byte{0})
		h.Write([]byte(cp.AgentID.Model))
		h.Write([]byte{0})
	}
	if cp.Transcript != nil {
		for _, m := range cp.Transcript.Messages {
			h.Write([]byte(m.Role))
			h.Write([]byte{0})
			h.Write([]byte(m.Text))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
