package todo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ExportVersion is the backup envelope schema version.
const ExportVersion = 1

// Envelope is the versioned wrapper written by ExportJSON.
type Envelope struct {
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt"`
	State      State  `json:"state"`
}

// ExportJSON serializes the state into the versioned backup envelope.
func ExportJSON(state State) ([]byte, error) {
	env := Envelope{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		State:      state,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// sanitizeJSONText strips artifacts that commonly ride along when a
// backup is pasted from a chat window or terminal: the single-rune
// ellipsis, screen-elision dots, and trailing commas.
func sanitizeJSONText(raw string) string {
	s := strings.ReplaceAll(raw, "…", "...")
	s = strings.ReplaceAll(s, "...", "")
	s = trailingComma.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// ImportJSON parses an exported backup. It accepts the versioned
// envelope or a bare state object, from any schema version the
// normalization routine understands. The current state is never touched
// on error.
func ImportJSON(raw string) (State, error) {
	cleaned := sanitizeJSONText(raw)

	var envelope struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return State{}, fmt.Errorf("invalid JSON: %w", err)
	}

	payload := []byte(cleaned)
	if envelope.State != nil {
		payload = envelope.State
	}
	return DecodeState(payload)
}
