// Package cache keeps deleted conversations restorable for a short window.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-assistant/internal/model"
)

// ErrGone is returned when a trashed conversation expired or never existed.
var ErrGone = errors.New("restore window expired")

// Entry is a deleted conversation with its messages.
type Entry struct {
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
}

// Trash holds deleted conversations for a TTL.
type Trash interface {
	Put(ctx context.Context, e Entry) error
	// Take removes and returns the entry, or ErrGone.
	Take(ctx context.Context, conversationID string) (*Entry, error)
}

func trashKey(id string) string { return "trash:conversation:" + id }

// RedisTrash stores entries as JSON strings with an expiry.
type RedisTrash struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisTrash returns a Redis-backed trash.
func NewRedisTrash(rdb redis.Cmdable, ttl time.Duration) *RedisTrash {
	return &RedisTrash{rdb: rdb, ttl: ttl}
}

func (t *RedisTrash) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode trash entry: %w", err)
	}
	// redis/go-redis/v9: Set with TTL; the key disappears when the window closes.
	if err := t.rdb.Set(ctx, trashKey(e.Conversation.ID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("trash conversation %s: %w", e.Conversation.ID, err)
	}
	return nil
}

func (t *RedisTrash) Take(ctx context.Context, conversationID string) (*Entry, error) {
	// redis/go-redis/v9: GetDel makes restore single-shot.
	data, err := t.rdb.GetDel(ctx, trashKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGone
	}
	if err != nil {
		return nil, fmt.Errorf("restore conversation %s: %w", conversationID, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode trash entry: %w", err)
	}
	return &e, nil
}

// MemoryTrash is the in-process trash.
type MemoryTrash struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	Entry
	expires time.Time
}

// NewMemoryTrash returns an empty in-process trash.
func NewMemoryTrash(ttl time.Duration) *MemoryTrash {
	return &MemoryTrash{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (t *MemoryTrash) Put(_ context.Context, e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for id, old := range t.entries {
		if !now.Before(old.expires) {
			delete(t.entries, id)
		}
	}
	t.entries[e.Conversation.ID] = memoryEntry{Entry: e, expires: now.Add(t.ttl)}
	return nil
}

func (t *MemoryTrash) Take(_ context.Context, conversationID string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[conversationID]
	if !ok {
		return nil, ErrGone
	}
	delete(t.entries, conversationID)
	if !t.now().Before(e.expires) {
		return nil, ErrGone
	}
	return &e.Entry, nil
}
