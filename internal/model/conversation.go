package model

import "time"

// DefaultConversationTitle is the title of a conversation nobody renamed yet.
const DefaultConversationTitle = "New Chat"

// Sender values for Message.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one utterance in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatRequest models a chat call, over HTTP or Kafka.
type ChatRequest struct {
	Query          string `json:"query" validate:"required,max=500"`
	ConversationID string `json:"conversation_id,omitempty" validate:"omitempty,max=64"`
	Caller         Caller `json:"caller"`
}

// ChatReply is the per-turn result handed back to the caller.
type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	UserMessageID  string `json:"user_message_id"`
	BotMessageID   string `json:"bot_message_id"`
	Response       string `json:"response"`
	Title          string `json:"title"`
}
