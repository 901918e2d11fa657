package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants exchanged with the HUD
// front-end.
type MessageType string

const (
	TypeClientListen    MessageType = "client_listen"
	TypeClientUtterance MessageType = "client_utterance"
	TypeStateEvent      MessageType = "state_event"
	TypeUtteranceHeard  MessageType = "utterance_heard"
	TypeAssistantReply  MessageType = "assistant_reply"
	TypeSystemNotice    MessageType = "system_notice"
	TypeSystemStats     MessageType = "system_stats"
	TypeErrorEvent      MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientListen asks the coordinator to arm one listening cycle. A request
// while already listening is dropped, not queued.
type ClientListen struct {
	Type MessageType `json:"type"`
}

// ClientUtterance injects captured text as if it had been heard. This is the
// delivery path for an external speech-to-text collaborator.
type ClientUtterance struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
	TSMs int64       `json:"ts_ms"`
}

// StateEvent announces a coordinator state transition.
type StateEvent struct {
	Type   MessageType `json:"type"`
	State  string      `json:"state"`
	TurnID string      `json:"turn_id,omitempty"`
}

// UtteranceHeard echoes the text the assistant committed to processing.
type UtteranceHeard struct {
	Type   MessageType `json:"type"`
	TurnID string      `json:"turn_id"`
	Text   string      `json:"text"`
}

// AssistantReply carries the text being spoken for a turn.
type AssistantReply struct {
	Type   MessageType `json:"type"`
	TurnID string      `json:"turn_id"`
	Text   string      `json:"text"`
}

// SystemNotice is advisory status text for the HUD ("didn't catch that").
type SystemNotice struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

// SystemStats publishes advisory CPU/RAM readings.
type SystemStats struct {
	Type       MessageType `json:"type"`
	CPUPercent float64     `json:"cpu_percent"`
	RAMPercent float64     `json:"ram_percent"`
}

// ErrorEvent reports a degraded-but-recovered failure.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates an inbound HUD message.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientListen:
		var msg ClientListen
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeClientUtterance:
		var msg ClientUtterance
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid client_utterance: empty text")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
