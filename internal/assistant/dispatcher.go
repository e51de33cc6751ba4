// Package assistant runs one conversational turn: normalize, classify,
// resolve against the catalog, render a reply and append it to the
// conversation log.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront-assistant/internal/catalog"
	"storefront-assistant/internal/intent"
	"storefront-assistant/internal/lexicon"
	"storefront-assistant/internal/llm"
	"storefront-assistant/internal/model"
	"storefront-assistant/internal/store"
	"storefront-assistant/internal/textnorm"
)

// CatalogProvider rebuilds the catalog snapshot. It is called once per turn.
type CatalogProvider interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// AccountProvider reads caller-scoped account state. It is never asked to
// write. Order and LatestOrder return a nil order when there is none.
type AccountProvider interface {
	Cart(ctx context.Context, userID string) ([]model.CartItem, error)
	Wishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)
	Order(ctx context.Context, userID string, orderID int64) (*model.Order, error)
	LatestOrder(ctx context.Context, userID string) (*model.Order, error)
}

// ConversationStore is the part of the conversation log a turn needs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, owner string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, sender, content string) (*model.Message, error)
	SetTitle(ctx context.Context, id, title string) error
}

// EventPublisher receives turn telemetry. Failures are logged, never returned.
type EventPublisher interface {
	PublishTurn(ctx context.Context, evt model.TurnEvent) error
	PublishMiss(ctx context.Context, term string) error
}

// Config wires a Dispatcher. Lexicon and Store are required; every other
// collaborator is optional and degrades the matching replies when absent.
type Config struct {
	Lexicon   *lexicon.Lexicon
	Store     ConversationStore
	Catalog   CatalogProvider
	Accounts  AccountProvider
	Completer llm.Completer
	Guesser   catalog.CategoryGuesser
	Events    EventPublisher
	Logger    zerolog.Logger
}

type handler func(ctx context.Context, t *turn) (string, bool)

// Dispatcher handles turns. It holds no per-turn state and is safe for
// concurrent use.
type Dispatcher struct {
	lex        *lexicon.Lexicon
	store      ConversationStore
	catalog    CatalogProvider
	accounts   AccountProvider
	completer  llm.Completer
	events     EventPublisher
	classifier *intent.Classifier
	resolver   *catalog.Resolver
	handlers   map[intent.Intent]handler
	log        zerolog.Logger
}

// turn carries the state of one HandleTurn call through the handlers.
type turn struct {
	req      model.ChatRequest
	query    textnorm.Query
	decision intent.Decision
	snap     *model.Snapshot
	match    catalog.MatchResult
	inferred string // category guessed for a missing product
}

// New builds a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Lexicon == nil {
		return nil, fmt.Errorf("assistant: lexicon is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("assistant: conversation store is required")
	}
	log := cfg.Logger.With().Str("component", "dispatcher").Logger()

	resolverOpts := []catalog.Option{catalog.WithLogger(log)}
	if cfg.Guesser != nil {
		resolverOpts = append(resolverOpts, catalog.WithGuesser(cfg.Guesser))
	}

	d := &Dispatcher{
		lex:        cfg.Lexicon,
		store:      cfg.Store,
		catalog:    cfg.Catalog,
		accounts:   cfg.Accounts,
		completer:  cfg.Completer,
		events:     cfg.Events,
		classifier: intent.NewClassifier(cfg.Lexicon),
		resolver:   catalog.NewResolver(cfg.Lexicon.Thresholds, resolverOpts...),
		log:        log,
	}
	d.handlers = map[intent.Intent]handler{
		intent.Greeting:                 d.greeting,
		intent.MeaninglessInput:         d.meaningless,
		intent.Cart:                     d.cart,
		intent.Wishlist:                 d.wishlist,
		intent.PriceAndImage:            d.priceAndImage,
		intent.ImageOnly:                d.imageOnly,
		intent.Offer:                    d.offers,
		intent.ProductHealthBenefit:     d.healthBenefit,
		intent.ProductAvailability:      d.availability,
		intent.ProductGeneral:           d.productCard,
		intent.CategoryGeneral:          d.categoryListing,
		intent.DietOrNutrition:          d.diet,
		intent.GeneralHealth:            d.generalHealth,
		intent.CategoryFallback:         d.categoryFallback,
		intent.OrderOrPaymentOrTracking: d.order,
		intent.Fallback:                 d.fallback,
	}
	return d, nil
}

// HandleTurn answers one shopper query and appends the user and bot messages
// to the conversation, creating it when req has none. Only conversation
// store failures are returned; every other failure degrades the reply.
func (d *Dispatcher) HandleTurn(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error) {
	start := time.Now()

	conv, err := d.conversation(ctx, req)
	if err != nil {
		return nil, err
	}
	userMsg, err := d.store.AppendMessage(ctx, conv.ID, model.SenderUser, req.Query)
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	if conv.Title == model.DefaultConversationTitle && strings.TrimSpace(req.Query) != "" {
		title := store.Title(strings.TrimSpace(req.Query))
		if err := d.store.SetTitle(ctx, conv.ID, title); err != nil {
			return nil, fmt.Errorf("set title: %w", err)
		}
		conv.Title = title
	}

	t := &turn{req: req, query: textnorm.NewQuery(req.Query, d.lex.StopWords)}
	reply := textnorm.FixArticle(d.dispatch(ctx, t))

	botMsg, err := d.store.AppendMessage(ctx, conv.ID, model.SenderBot, reply)
	if err != nil {
		return nil, fmt.Errorf("append bot message: %w", err)
	}

	d.publishTurn(ctx, conv.ID, t, time.Since(start))

	return &model.ChatReply{
		ConversationID: conv.ID,
		UserMessageID:  userMsg.ID,
		BotMessageID:   botMsg.ID,
		Response:       botMsg.Content,
		Title:          conv.Title,
	}, nil
}

// conversation loads the requested conversation. An empty or unknown id
// (deleted, purged, or left over from an old client session) starts a new
// one; a conversation owned by someone else is reported as not found.
func (d *Dispatcher) conversation(ctx context.Context, req model.ChatRequest) (*model.Conversation, error) {
	if req.ConversationID == "" {
		return d.newConversation(ctx, req.Caller.UserID)
	}
	conv, err := d.store.GetConversation(ctx, req.ConversationID)
	if errors.Is(err, store.ErrNotFound) {
		d.log.Debug().Str("conversation_id", req.ConversationID).Msg("unknown conversation, starting a new one")
		return d.newConversation(ctx, req.Caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv.Owner != "" && conv.Owner != req.Caller.UserID {
		return nil, fmt.Errorf("load conversation %s: %w", conv.ID, store.ErrNotFound)
	}
	return conv, nil
}

func (d *Dispatcher) newConversation(ctx context.Context, owner string) (*model.Conversation, error) {
	conv, err := d.store.CreateConversation(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// dispatch runs the first handler, in precedence order, that accepts the turn.
func (d *Dispatcher) dispatch(ctx context.Context, t *turn) string {
	if dec, ok := d.classifier.Terminal(t.query); ok {
		t.decision = dec
		reply, _ := d.handlers[dec.Intent](ctx, t)
		return reply
	}

	t.snap = d.snapshot(ctx)
	t.match = d.resolver.Resolve(t.query.Clean, t.snap)
	sig := intent.Signals{HasProduct: t.match.Product != nil, HasCategory: t.match.Category != nil}

	for _, dec := range d.classifier.Candidates(t.query, sig) {
		h, ok := d.handlers[dec.Intent]
		if !ok {
			continue
		}
		t.decision = dec
		if reply, ok := h(ctx, t); ok {
			return reply
		}
		d.log.Debug().Stringer("intent", dec.Intent).Msg("handler declined")
	}
	return msgCapabilities
}

func (d *Dispatcher) snapshot(ctx context.Context) *model.Snapshot {
	if d.catalog == nil {
		return &model.Snapshot{}
	}
	snap, err := d.catalog.Snapshot(ctx)
	if err != nil || snap == nil {
		d.log.Warn().Err(err).Msg("catalog snapshot unavailable, answering without catalog")
		return &model.Snapshot{}
	}
	return snap
}

// complete calls the completion service and swallows every failure.
func (d *Dispatcher) complete(ctx context.Context, p llm.Prompt) string {
	if d.completer == nil {
		return ""
	}
	out, err := d.completer.Complete(ctx, p)
	if err != nil {
		d.log.Warn().Err(err).Msg("completion failed")
		return ""
	}
	return strings.TrimSpace(out)
}

func (d *Dispatcher) publishTurn(ctx context.Context, conversationID string, t *turn, took time.Duration) {
	if d.events == nil {
		return
	}
	evt := model.TurnEvent{
		ConversationID: conversationID,
		Intent:         t.decision.Intent.String(),
		Greeting:       t.decision.Greeting,
		DietType:       t.decision.Diet,
		Score:          t.match.Score,
		Authenticated:  t.req.Caller.Authenticated,
		LatencyMillis:  took.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if t.match.Product != nil {
		evt.Product = t.match.Product.Title
	}
	switch {
	case t.inferred != "":
		evt.Category = t.inferred
	case t.match.Category != nil:
		evt.Category = t.match.Category.Name
	}
	if err := d.events.PublishTurn(ctx, evt); err != nil {
		d.log.Warn().Err(err).Msg("publish turn event failed")
	}
}

func (d *Dispatcher) publishMiss(ctx context.Context, term string) {
	if d.events == nil || term == "" {
		return
	}
	if err := d.events.PublishMiss(ctx, term); err != nil {
		d.log.Warn().Err(err).Str("term", term).Msg("publish catalog miss failed")
	}
}
