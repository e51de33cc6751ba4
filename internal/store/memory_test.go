package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-assistant/internal/model"
)

func TestMemory_ConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c, err := m.CreateConversation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConversationTitle, c.Title)
	assert.NotEmpty(t, c.ID)

	u, err := m.AppendMessage(ctx, c.ID, model.SenderUser, "price of milk")
	require.NoError(t, err)
	b, err := m.AppendMessage(ctx, c.ID, model.SenderBot, "₹40")
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, b.ID)

	msgs, err := m.Messages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, model.SenderBot, msgs[1].Sender)

	require.NoError(t, m.SetTitle(ctx, c.ID, "Milk"))
	pinned, err := m.TogglePin(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, pinned)

	got, err := m.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Title)
	assert.True(t, got.Pinned)

	require.NoError(t, m.DeleteMessage(ctx, u.ID))
	msgs, _ = m.Messages(ctx, c.ID)
	assert.Len(t, msgs, 1)

	require.NoError(t, m.DeleteConversation(ctx, c.ID))
	_, err = m.GetConversation(ctx, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.RestoreConversation(ctx, *got, msgs))
	msgs, err = m.Messages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Error(t, m.RestoreConversation(ctx, *got, nil))
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.AppendMessage(ctx, "missing", model.SenderUser, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.SetTitle(ctx, "missing", "x"), ErrNotFound)
	assert.ErrorIs(t, m.DeleteMessage(ctx, "missing"), ErrNotFound)
	_, err = m.TogglePin(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListConversations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	old, _ := m.CreateConversation(ctx, "u1")
	mid, _ := m.CreateConversation(ctx, "u1")
	newest, _ := m.CreateConversation(ctx, "u1")
	_, _ = m.CreateConversation(ctx, "u2")
	_, _ = m.TogglePin(ctx, old.ID)

	list, err := m.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{old.ID, newest.ID, mid.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "price of milk", Title("price of milk"))
	assert.Equal(t, "what are the offers on fresh f...", Title("what are the offers on fresh fruits today"))
}
