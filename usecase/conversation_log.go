package usecase

import "github.com/satriahrh/campus-chat/domain"

// ConversationLog is the ordered, append-only message store of one chat
// view. It does no locking of its own; the owning ChatSession serializes
// access.
type ConversationLog struct {
	messages []domain.ChatMessage
}

func NewConversationLog(seed ...domain.ChatMessage) *ConversationLog {
	l := &ConversationLog{messages: make([]domain.ChatMessage, 0, len(seed)+8)}
	l.messages = append(l.messages, seed...)
	return l
}

// Append extends the log by one message at the tail.
func (l *ConversationLog) Append(msg domain.ChatMessage) {
	l.messages = append(l.messages, msg)
}

// Messages returns a copy of the log, oldest first.
func (l *ConversationLog) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *ConversationLog) Len() int {
	return len(l.messages)
}
