// Package kstream moves assistant traffic over Kafka: chat queries in,
// replies and turn telemetry out.
package kstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"storefront-assistant/internal/model"
)

// Topics names the Kafka topics the assistant uses.
type Topics struct {
	Queries string
	Replies string
	Turns   string
	Misses  string
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduper reports whether a term was seen before, recording it.
type Deduper interface {
	Seen(ctx context.Context, term string) (bool, error)
}

// kafkaWriter constructs a Kafka producer using segmentio/kafka-go library.
func kafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...), // segmentio/kafka-go: TCP address for Kafka brokers
		Topic:        topic,                 // Target Kafka topic name
		Balancer:     &kafka.Hash{},         // segmentio/kafka-go: same key, same partition
		RequiredAcks: kafka.RequireOne,      // segmentio/kafka-go: Wait for leader ack only
		BatchTimeout: 10 * time.Millisecond, // segmentio/kafka-go: flush small batches quickly
		BatchBytes:   1 << 20,               // segmentio/kafka-go: Max batch size (1MB)
	}
}

// Publisher writes replies and telemetry. It implements the dispatcher's
// EventPublisher.
type Publisher struct {
	replies messageWriter
	turns   messageWriter
	misses  messageWriter
	dedupe  Deduper
	log     zerolog.Logger
}

// NewPublisher creates writers for the reply, turn and miss topics. dedupe
// may be nil, in which case every miss is published.
func NewPublisher(brokers []string, topics Topics, dedupe Deduper, log zerolog.Logger) *Publisher {
	return &Publisher{
		replies: kafkaWriter(brokers, topics.Replies),
		turns:   kafkaWriter(brokers, topics.Turns),
		misses:  kafkaWriter(brokers, topics.Misses),
		dedupe:  dedupe,
		log:     log.With().Str("component", "kafka-publisher").Logger(),
	}
}

// PublishReply answers a QueryEnvelope on the replies topic.
func (p *Publisher) PublishReply(ctx context.Context, env model.ReplyEnvelope) error {
	return publishJSON(ctx, p.replies, env.RequestID, env)
}

// PublishTurn records a handled turn, keyed by conversation.
func (p *Publisher) PublishTurn(ctx context.Context, evt model.TurnEvent) error {
	return publishJSON(ctx, p.turns, evt.ConversationID, evt)
}

// PublishMiss records an unresolved term the first time it is seen.
func (p *Publisher) PublishMiss(ctx context.Context, term string) error {
	if p.dedupe != nil {
		seen, err := p.dedupe.Seen(ctx, term)
		if err != nil {
			p.log.Warn().Err(err).Str("term", term).Msg("miss dedupe failed, publishing anyway")
		}
		if seen {
			return nil
		}
	}
	return publishJSON(ctx, p.misses, term, model.CatalogMiss{
		Term:      term,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Close flushes and closes every writer.
func (p *Publisher) Close() error {
	var first error
	for _, w := range []messageWriter{p.replies, p.turns, p.misses} {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func publishJSON(ctx context.Context, w messageWriter, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode kafka message: %w", err)
	}
	// segmentio/kafka-go: Key is used for partitioning (same key, same partition).
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}
