package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-assistant/internal/model"
)

// Memory is an in-process Store for tests and the CLI.
type Memory struct {
	mu       sync.Mutex
	convs    map[string]*model.Conversation
	messages map[string][]model.Message // by conversation id
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		convs:    map[string]*model.Conversation{},
		messages: map[string][]model.Message{},
		now:      time.Now,
	}
}

func (m *Memory) CreateConversation(_ context.Context, owner string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Conversation{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     model.DefaultConversationTitle,
		CreatedAt: m.now().UTC(),
	}
	m.convs[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *Memory) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// ListConversations returns owner's conversations, pinned first and newest
// first within each group.
func (m *Memory) ListConversations(_ context.Context, owner string) ([]model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Conversation
	for _, c := range m.convs {
		if c.Owner == owner {
			out = append(out, *c)
		}
	}
	SortConversations(out)
	return out, nil
}

func (m *Memory) SetTitle(_ context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	c.Title = title
	return nil
}

func (m *Memory) TogglePin(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return false, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	c.Pinned = !c.Pinned
	return c.Pinned, nil
}

func (m *Memory) DeleteConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[id]; !ok {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	delete(m.convs, id)
	delete(m.messages, id)
	return nil
}

func (m *Memory) RestoreConversation(_ context.Context, conv model.Conversation, msgs []model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[conv.ID]; ok {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	c := conv
	m.convs[c.ID] = &c
	m.messages[c.ID] = append([]model.Message(nil), msgs...)
	return nil
}

func (m *Memory) AppendMessage(_ context.Context, conversationID, sender, content string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	msg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      m.now().UTC(),
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return &msg, nil
}

func (m *Memory) Messages(_ context.Context, conversationID string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return append([]model.Message(nil), m.messages[conversationID]...), nil
}

func (m *Memory) DeleteMessage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cid, msgs := range m.messages {
		for i, msg := range msgs {
			if msg.ID == id {
				m.messages[cid] = append(msgs[:i:i], msgs[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("message %s: %w", id, ErrNotFound)
}

// SortConversations orders pinned conversations first, then newest first.
func SortConversations(cs []model.Conversation) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Pinned != cs[j].Pinned {
			return cs[i].Pinned
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}
