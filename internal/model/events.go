package model

// TurnEvent is emitted after every handled turn. It is published to Kafka
// topic assistant.turns and feeds offline tuning of keywords and thresholds.
type TurnEvent struct {
	ConversationID string  `json:"conversation_id"`
	Intent         string  `json:"intent"`
	Greeting       string  `json:"greeting,omitempty"`  // time-of-day bucket
	DietType       string  `json:"diet_type,omitempty"` // e.g. kids_noon
	Product        string  `json:"product,omitempty"`
	Category       string  `json:"category,omitempty"`
	Score          float64 `json:"score"`
	Authenticated  bool    `json:"authenticated"`
	LatencyMillis  int64   `json:"latency_ms"`
	Timestamp      string  `json:"timestamp"` // RFC3339
}

// CatalogMiss is published to topic catalog.misses the first time shoppers
// ask for a term the catalog could not resolve.
type CatalogMiss struct {
	Term      string `json:"term"`
	Timestamp string `json:"timestamp"`
}

// QueryEnvelope is the Kafka form of a chat request on assistant.queries.
type QueryEnvelope struct {
	RequestID string      `json:"request_id" validate:"required"`
	Request   ChatRequest `json:"request" validate:"required"`
}

// ReplyEnvelope is published on assistant.replies for each QueryEnvelope.
type ReplyEnvelope struct {
	RequestID string     `json:"request_id"`
	Reply     *ChatReply `json:"reply,omitempty"`
	Error     string     `json:"error,omitempty"`
}
