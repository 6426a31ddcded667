package history

import (
	"context"
	"time"
)

// Role tags a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// Store is the durable snapshot substrate for session histories.
// Load reports absence as (nil, false, nil), not as an error.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Turn, bool, error)
	Save(ctx context.Context, sessionID string, turns []Turn) error
	Close() error
}
