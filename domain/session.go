package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

// SessionState holds the UI flags of one chat view.
type SessionState struct {
	Draft         string `json:"draft"`
	AwaitingReply bool   `json:"awaiting_reply"`
}

type SessionEventType string

const (
	MessageAppended SessionEventType = "message"
	AwaitingChanged SessionEventType = "awaiting"
	SessionEnded    SessionEventType = "closed"
)

// SessionEvent is emitted whenever the conversation log or the awaiting flag
// of a session changes. Presentation surfaces re-render on it.
type SessionEvent struct {
	Type          SessionEventType `json:"type"`
	SessionID     string           `json:"session_id"`
	Message       *ChatMessage     `json:"message,omitempty"`
	AwaitingReply bool             `json:"awaiting_reply"`
}
