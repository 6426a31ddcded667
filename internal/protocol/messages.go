package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage    MessageType = "userMessage"
	TypeStatus         MessageType = "status"
	TypeAssistantReply MessageType = "assistantReply"
	TypeError          MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is the only inbound payload the agent acts on.
type UserMessage struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

type Status struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

type AssistantReply struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

func NewStatus(content string) Status {
	return Status{Type: TypeStatus, Content: content}
}

func NewAssistantReply(content string) AssistantReply {
	return AssistantReply{Type: TypeAssistantReply, Content: content}
}

func NewError(content string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Content: content}
}

// ParseClientMessage decodes an inbound frame. Unknown types yield
// ErrUnsupportedType; the caller decides whether to drop or report.
// Content is coerced to a string, absent content becomes "".
func ParseClientMessage(raw []byte) (UserMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return UserMessage{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type != TypeUserMessage {
		return UserMessage{}, ErrUnsupportedType
	}

	var wire struct {
		Type    MessageType `json:"type"`
		Content any         `json:"content"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return UserMessage{}, fmt.Errorf("invalid userMessage: %w", err)
	}
	return UserMessage{Type: TypeUserMessage, Content: coerceContent(wire.Content)}, nil
}

func coerceContent(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprint(c)
		}
		return string(b)
	}
}
