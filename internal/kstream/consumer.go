package kstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/processing"
)

// go-playground/validator/v10: envelopes are validated before dispatch.
var validate = validator.New()

// TurnHandler answers one chat request.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error)
}

// ReplyPublisher sends the outcome of a query.
type ReplyPublisher interface {
	PublishReply(ctx context.Context, env model.ReplyEnvelope) error
}

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaReader creates a consumer-group reader using segmentio/kafka-go.
func KafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,     // segmentio/kafka-go: Kafka broker addresses
		Topic:          topic,       // segmentio/kafka-go: Topic to consume from
		GroupID:        groupID,     // segmentio/kafka-go: Consumer group ID (enables load balancing)
		MinBytes:       1,           // chat queries are small; do not wait for a fill
		MaxBytes:       1 << 20,     // segmentio/kafka-go: Max bytes per fetch (1MB)
		CommitInterval: time.Second, // segmentio/kafka-go: Auto-commit interval for offsets
	})
}

// Consumer reads QueryEnvelopes and hands them to the worker pool.
type Consumer struct {
	reader  messageReader
	handler TurnHandler
	replies ReplyPublisher
	pool    *processing.Pool
	log     zerolog.Logger
}

// NewConsumer wires a consumer. It takes ownership of reader.
func NewConsumer(reader messageReader, handler TurnHandler, replies ReplyPublisher, pool *processing.Pool, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		handler: handler,
		replies: replies,
		pool:    pool,
		log:     log.With().Str("component", "kafka-consumer").Logger(),
	}
}

// Run consumes until ctx is cancelled or the reader fails. Cancellation is
// not an error.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	c.log.Info().Msg("consuming chat queries")

	for {
		// segmentio/kafka-go: ReadMessage blocks until a message is available and
		// commits offsets through the consumer group.
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		env, err := decodeQuery(msg.Value)
		if err != nil {
			c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("dropping malformed query")
			continue
		}

		key := env.Request.ConversationID
		if key == "" {
			key = env.RequestID
		}
		if err := c.pool.Submit(ctx, key, func(ctx context.Context) { c.handle(ctx, env) }); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, env model.QueryEnvelope) {
	out := model.ReplyEnvelope{RequestID: env.RequestID}
	reply, err := c.handler.HandleTurn(ctx, env.Request)
	if err != nil {
		c.log.Error().Err(err).Str("request_id", env.RequestID).Msg("turn failed")
		out.Error = err.Error()
	} else {
		out.Reply = reply
	}
	if err := c.replies.PublishReply(ctx, out); err != nil {
		c.log.Error().Err(err).Str("request_id", env.RequestID).Msg("publish reply failed")
	}
}

func decodeQuery(data []byte) (model.QueryEnvelope, error) {
	var env model.QueryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, err
	}
	if err := validate.Struct(env); err != nil {
		return env, err
	}
	return env, nil
}
