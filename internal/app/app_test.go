package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-assistant/internal/cache"
	"storefront-assistant/internal/config"
	"storefront-assistant/internal/model"
	"storefront-assistant/internal/store"
)

func TestNew_LocalBackends(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "products.jsonl")
	require.NoError(t, os.WriteFile(products, []byte(
		`{"id":1,"title":"Milk","category":"Dairy","base_price":40,"stock":10}
{"id":2,"title":"","category":"Dairy"}
`), 0o600))

	cfg := config.DefaultConfig()
	cfg.Catalog.ProductsPath = products
	cfg.Catalog.CategoriesPath = ""
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	a, err := New(context.Background(), cfg, zerolog.Nop(), Options{DisableKafka: true})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.Memory{}, a.Store)
	assert.IsType(t, &cache.MemoryTrash{}, a.Trash)
	assert.Nil(t, a.Publisher)

	reply, err := a.Dispatcher.HandleTurn(context.Background(), model.ChatRequest{Query: "price of milk"})
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "₹40")
	assert.Len(t, a.Rejections(), 1)
}

func TestNew_BadLexiconPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, zerolog.Nop(), Options{})
	assert.Error(t, err)
}

func TestTopics(t *testing.T) {
	topics := Topics(config.DefaultConfig().Kafka)
	assert.Equal(t, "assistant.queries", topics.Queries)
	assert.Equal(t, "assistant.replies", topics.Replies)
	assert.Equal(t, "assistant.turns", topics.Turns)
	assert.Equal(t, "catalog.misses", topics.Misses)
}
