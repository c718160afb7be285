package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/redact"
)

func init() {
	register(geminiCLI{})
}

// geminiCLI parses Gemini CLI's hook payload and its JSON session file
// (~/.gemini/tmp/<hash>/chats/session-<date>-<id>.json).
type geminiCLI struct{}

func (geminiCLI) Name() string { return "gemini-cli" }

type geminiHookPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
}

type geminiTranscript struct {
	Messages []geminiMessage `json:"messages"`
}

type geminiMessage struct {
	Type    string `json:"type"` // "user" or "gemini"
	Model   string `json:"model,omitempty"`
	Content geminiMessageContent
}

const (
	geminiMessageTypeUser   = "user"
	geminiMessageTypeGemini = "gemini"
)

// UnmarshalJSON handles Gemini's two content shapes: a plain string for
// model turns, or an array of {"text": "..."} parts for user turns.
func (m *geminiMessage) UnmarshalJSON(data []byte) error {
	type alias geminiMessage
	aux := struct {
		*alias
		Content json.RawMessage `json:"content,omitempty"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshal gemini message: %w", err)
	}
	if len(aux.Content) == 0 || string(aux.Content) == "null" {
		return nil
	}

	var str string
	if err := json.Unmarshal(aux.Content, &str); err == nil {
		m.Content = geminiMessageContent(str)
		return nil
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(aux.Content, &parts); err == nil {
		var texts []string
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		m.Content = geminiMessageContent(strings.Join(texts, "\n"))
	}
	return nil
}

type geminiMessageContent string

func (geminiCLI) ParseSession(raw []byte) (noteschema.AgentID, noteschema.Transcript, error) {
	var payload geminiHookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return noteschema.AgentID{}, noteschema.Transcript{}, fmt.Errorf("parse gemini cli hook payload: %w", err)
	}
	agentID := noteschema.AgentID{Tool: "gemini-cli", ID: payload.SessionID}

	if payload.TranscriptPath == "" {
		return agentID, noteschema.Transcript{}, nil
	}
	data, err := os.ReadFile(payload.TranscriptPath) //nolint:gosec // path is supplied by Gemini CLI's own hook payload
	if err != nil {
		return agentID, noteschema.Transcript{}, fmt.Errorf("read gemini cli transcript: %w", err)
	}
	data, err = redact.JSONBytes(data)
	if err != nil {
		return agentID, noteschema.Transcript{}, fmt.Errorf("redact gemini cli transcript: %w", err)
	}

	var transcript geminiTranscript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return agentID, noteschema.Transcript{}, fmt.Errorf("parse gemini cli transcript: %w", err)
	}

	var messages []noteschema.Message
	var model string
	for _, m := range transcript.Messages {
		text := string(m.Content)
		if text == "" {
			continue
		}
		switch m.Type {
		case geminiMessageTypeUser:
			messages = append(messages, noteschema.Message{Role: "User", Text: text})
		case geminiMessageTypeGemini:
			if m.Model != "" {
				model = m.Model
			}
			messages = append(messages, noteschema.Message{Role: "Assistant", Text: text})
		}
	}
	agentID.Model = model
	return agentID, noteschema.Transcript{Messages: messages}, nil
}
