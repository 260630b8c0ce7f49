package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	UserSender Sender = "user"
	BotSender  Sender = "bot"
)

// Canned bot texts.
const (
	GreetingText        = "👋 Hello! I'm your CDU Assistant. Ask me anything about CDU policies, courses, or help resources."
	FallbackText        = "⚠️ Sorry, I couldn't understand that."
	ConnectionErrorText = "⚠️ Connection error. Please try again."
)

// ChatMessage is one turn of the conversation. It is a value type and is
// never modified after NewMessage returns it.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(sender Sender, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

func NewUserMessage(text string) ChatMessage { return NewMessage(UserSender, text) }

func NewBotMessage(text string) ChatMessage { return NewMessage(BotSender, text) }

// Greeting is the synthetic bot message every conversation starts with.
func Greeting() ChatMessage { return NewBotMessage(GreetingText) }
