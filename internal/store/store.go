// Package store persists conversations and their messages.
package store

import (
	"context"
	"errors"

	"storefront-assistant/internal/model"
)

// ErrNotFound is returned when a conversation or message does not exist.
var ErrNotFound = errors.New("not found")

// Store is the conversation log. Implementations must be safe for concurrent
// use.
type Store interface {
	CreateConversation(ctx context.Context, owner string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, owner string) ([]model.Conversation, error)
	SetTitle(ctx context.Context, id, title string) error
	TogglePin(ctx context.Context, id string) (bool, error)
	DeleteConversation(ctx context.Context, id string) error
	// RestoreConversation re-inserts a deleted conversation with its messages.
	RestoreConversation(ctx context.Context, conv model.Conversation, msgs []model.Message) error

	AppendMessage(ctx context.Context, conversationID, sender, content string) (*model.Message, error)
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// Title derives a conversation title from its first query.
func Title(query string) string {
	r := []rune(query)
	if len(r) > 30 {
		return string(r[:30]) + "..."
	}
	return query
}
