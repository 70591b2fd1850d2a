// ABOUTME: Voice agent protocol message definitions
// ABOUTME: Control messages from the agent and audio messages to it
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Inbound control types
const (
	TypeVoiceActivityStart = "voiceActivityStart"
	TypeVoiceActivityEnd   = "voiceActivityEnd"
	TypeNewAudioStream     = "newAudioStream"
	TypeReady              = "ready"
)

// Outbound types
const (
	TypeAudioIn    = "audioIn"
	TypeInactivity = "inactivity"
)

// Frame is one inbound websocket message
type Frame struct {
	Binary bool
	Data   []byte
}

// Control is a parsed text frame. Fields other than type are kept raw.
type Control struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// ParseControl decodes a text frame. A missing type yields an empty Type,
// which callers treat like any other unknown type.
func ParseControl(data []byte) (Control, error) {
	var ctrl Control
	if err := json.Unmarshal(data, &ctrl); err != nil {
		return Control{}, fmt.Errorf("malformed control message: %w", err)
	}
	ctrl.Raw = append(json.RawMessage(nil), data...)
	return ctrl, nil
}

// Message is an outbound text frame
type Message struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// NewAudioIn wraps a captured audio chunk
func NewAudioIn(chunk []byte) Message {
	return Message{
		Type: TypeAudioIn,
		Data: base64.StdEncoding.EncodeToString(chunk),
	}
}

// NewInactivity reports that agent playback has stalled
func NewInactivity() Message {
	return Message{Type: TypeInactivity}
}

// Decode returns the raw bytes of an audioIn message
func (m Message) Decode() ([]byte, error) {
	if m.Type != TypeAudioIn {
		return nil, fmt.Errorf("not an %s message: %s", TypeAudioIn, m.Type)
	}
	data, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid audio payload: %w", err)
	}
	return data, nil
}
