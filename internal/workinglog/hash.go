package workinglog

import (
	"crypto/sha256"
	"encoding/hex"
)

// AgentHash returns a short, deterministic identifier for an AI session,
// derived from its session id and tool name. Used as the in-progress
// attribution author id while a working log accumulates checkpoints; the
// commit-time publication hash (derived from transcript content) is
// computed separately by internal/authorshiplog.
func AgentHash(sessionID, tool string) string {
	sum := sha256.Sum256([]byte(tool + "\x00" + sessionID))
	return "ai:" + hex.EncodeToString(sum[:])[:16]
}
