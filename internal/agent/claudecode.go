package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/redact"
)

// scannerBufferSize bounds a single JSONL line; Claude Code transcripts can
// carry large tool_result blocks.
const scannerBufferSize = 10 * 1024 * 1024

func init() {
	register(claudeCode{})
}

// claudeCode parses Claude Code's hook payload and its JSONL session
// transcript (~/.claude/projects/<repo>/<session>.jsonl).
type claudeCode struct{}

func (claudeCode) Name() string { return "claude-code" }

type claudeHookPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
}

type claudeTranscriptLine struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

type claudeUserMessage struct {
	Content json.RawMessage `json:"content"`
}

type claudeAssistantMessage struct {
	Model   string               `json:"model"`
	Content []claudeContentBlock `json:"content"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (claudeCode) ParseSession(raw []byte) (noteschema.AgentID, noteschema.Transcript, error) {
	var payload claudeHookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return noteschema.AgentID{}, noteschema.Transcript{}, fmt.Errorf("parse claude code hook payload: %w", err)
	}
	agentID := noteschema.AgentID{Tool: "claude-code", ID: payload.SessionID}

	if payload.TranscriptPath == "" {
		return agentID, noteschema.Transcript{}, nil
	}
	data, err := os.ReadFile(payload.TranscriptPath) //nolint:gosec // path is supplied by Claude Code's own hook payload
	if err != nil {
		return agentID, noteschema.Transcript{}, fmt.Errorf("read claude code transcript: %w", err)
	}
	data, err = redact.JSONLBytes(data)
	if err != nil {
		return agentID, noteschema.Transcript{}, fmt.Errorf("redact claude code transcript: %w", err)
	}

	messages, model := parseClaudeTranscript(data)
	agentID.Model = model
	return agentID, noteschema.Transcript{Messages: messages}, nil
}

func parseClaudeTranscript(data []byte) ([]noteschema.Message, string) {
	var messages []noteschema.Message
	var model string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, scannerBufferSize), scannerBufferSize)
	for scanner.Scan() {
		var line claudeTranscriptLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue // malformed line; skip rather than fail the whole checkpoint
		}
		switch line.Type {
		case "user":
			var msg claudeUserMessage
			if err := json.Unmarshal(line.Message, &msg); err != nil {
				continue
			}
			if text := extractClaudeText(msg.Content); text != "" {
				messages = append(messages, noteschema.Message{Role: "User", Text: text})
			}
		case "assistant":
			var msg claudeAssistantMessage
			if err := json.Unmarshal(line.Message, &msg); err != nil {
				continue
			}
			if msg.Model != "" {
				model = msg.Model
			}
			var texts []string
			for _, b := range msg.Content {
				if b.Type == "text" && b.Text != "" {
					texts = append(texts, b.Text)
				}
			}
			if len(texts) > 0 {
				messages = append(messages, noteschema.Message{Role: "Assistant", Text: strings.Join(texts, "\n\n")})
			}
		}
	}
	return messages, model
}

// extractClaudeText handles both content shapes Claude's transcript uses for
// user turns: a bare string, or an array of {"type":"text","text":"..."} blocks.
func extractClaudeText(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var blocks []claudeContentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var texts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				texts = append(texts, b.Text)
			}
		}
		return strings.Join(texts, "\n\n")
	}
	return ""
}
