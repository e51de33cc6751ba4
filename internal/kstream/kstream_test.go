package kstream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/processing"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) sent() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (d *fakeDeduper) Seen(_ context.Context, term string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	was := d.seen[term]
	d.seen[term] = true
	return was, nil
}

func testPublisher(dedupe Deduper) (*Publisher, *fakeWriter, *fakeWriter, *fakeWriter) {
	replies, turns, misses := &fakeWriter{}, &fakeWriter{}, &fakeWriter{}
	return &Publisher{
		replies: replies,
		turns:   turns,
		misses:  misses,
		dedupe:  dedupe,
		log:     zerolog.Nop(),
	}, replies, turns, misses
}

func TestPublisher_TurnKeyedByConversation(t *testing.T) {
	p, _, turns, _ := testPublisher(nil)
	require.NoError(t, p.PublishTurn(context.Background(), model.TurnEvent{
		ConversationID: "c-1",
		Intent:         "price",
		Score:          0.91,
	}))

	sent := turns.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "c-1", string(sent[0].Key))

	var evt model.TurnEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &evt))
	assert.Equal(t, "price", evt.Intent)
	assert.InDelta(t, 0.91, evt.Score, 1e-9)
}

func TestPublisher_MissDeduplicated(t *testing.T) {
	p, _, _, misses := testPublisher(&fakeDeduper{seen: map[string]bool{}})
	ctx := context.Background()
	require.NoError(t, p.PublishMiss(ctx, "apple"))
	require.NoError(t, p.PublishMiss(ctx, "apple"))
	require.NoError(t, p.PublishMiss(ctx, "mango"))

	sent := misses.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "apple", string(sent[0].Key))
	assert.Equal(t, "mango", string(sent[1].Key))

	var miss model.CatalogMiss
	require.NoError(t, json.Unmarshal(sent[0].Value, &miss))
	assert.Equal(t, "apple", miss.Term)
	_, err := time.Parse(time.RFC3339, miss.Timestamp)
	assert.NoError(t, err)
}

func TestPublisher_MissPublishedWhenDedupeFails(t *testing.T) {
	p, _, _, misses := testPublisher(&fakeDeduper{err: errors.New("redis down")})
	require.NoError(t, p.PublishMiss(context.Background(), "apple"))
	assert.Len(t, misses.sent(), 1)
}

func TestPublisher_WriteErrorWrapped(t *testing.T) {
	p, replies, _, _ := testPublisher(nil)
	replies.err = errors.New("broker gone")
	err := p.PublishReply(context.Background(), model.ReplyEnvelope{RequestID: "r-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write kafka message")
}

func TestPublisher_CloseClosesAllWriters(t *testing.T) {
	p, replies, turns, misses := testPublisher(nil)
	require.NoError(t, p.Close())
	assert.True(t, replies.closed)
	assert.True(t, turns.closed)
	assert.True(t, misses.closed)
}

func TestDecodeQuery(t *testing.T) {
	env, err := decodeQuery([]byte(`{"request_id":"r-1","request":{"query":"price of milk","conversation_id":"c-9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "r-1", env.RequestID)
	assert.Equal(t, "c-9", env.Request.ConversationID)

	_, err = decodeQuery([]byte(`{"request":{"query":"hi"}}`))
	assert.Error(t, err, "missing request id")

	_, err = decodeQuery([]byte(`{"request_id":"r-2","request":{"query":""}}`))
	assert.Error(t, err, "empty query")

	_, err = decodeQuery([]byte(`not json`))
	assert.Error(t, err)
}

type fakeReader struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

type fakeHandler struct{}

func (fakeHandler) HandleTurn(_ context.Context, req model.ChatRequest) (*model.ChatReply, error) {
	if req.Query == "boom" {
		return nil, errors.New("store unavailable")
	}
	return &model.ChatReply{ConversationID: "c-1", Response: "echo: " + req.Query}, nil
}

type replySink struct {
	mu   sync.Mutex
	envs []model.ReplyEnvelope
}

func (s *replySink) PublishReply(_ context.Context, env model.ReplyEnvelope) error {
	s.mu.Lock()
	s.envs = append(s.envs, env)
	s.mu.Unlock()
	return nil
}

func (s *replySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.envs)
}

func TestConsumer_DispatchesQueries(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		{Value: []byte(`{"request_id":"r-1","request":{"query":"hello","conversation_id":"c-1"}}`)},
		{Value: []byte(`garbage`)},
		{Value: []byte(`{"request":{"query":"no id"}}`)},
		{Value: []byte(`{"request_id":"r-2","request":{"query":"boom"}}`)},
	}}
	sink := &replySink{}
	pool := processing.NewPool(context.Background(), 2, 4)
	c := NewConsumer(reader, fakeHandler{}, sink, pool, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	pool.Close()

	assert.True(t, reader.closed)
	byID := map[string]model.ReplyEnvelope{}
	for _, env := range sink.envs {
		byID[env.RequestID] = env
	}
	require.NotNil(t, byID["r-1"].Reply)
	assert.Equal(t, "echo: hello", byID["r-1"].Reply.Response)
	assert.Nil(t, byID["r-2"].Reply)
	assert.Equal(t, "store unavailable", byID["r-2"].Error)
}
