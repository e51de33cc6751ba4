// Package app assembles the assistant from configuration. Both binaries start
// from here.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront-assistant/internal/account"
	"storefront-assistant/internal/assistant"
	"storefront-assistant/internal/bloom"
	"storefront-assistant/internal/cache"
	"storefront-assistant/internal/config"
	"storefront-assistant/internal/db"
	"storefront-assistant/internal/jsonl"
	"storefront-assistant/internal/kstream"
	"storefront-assistant/internal/lexicon"
	"storefront-assistant/internal/llm"
	"storefront-assistant/internal/schemagate"
	"storefront-assistant/internal/store"
)

// missCapacity sizes the catalog-miss bloom filter.
const missCapacity = 100_000

// App is a wired assistant and the resources it owns.
type App struct {
	Config     *config.Config
	Dispatcher *assistant.Dispatcher
	Store      store.Store
	Trash      cache.Trash
	Catalog    assistant.CatalogProvider
	// Publisher is nil when Kafka is not configured.
	Publisher *kstream.Publisher

	// rejections reports rows the catalog gate dropped, when the source keeps them.
	rejections func() []schemagate.Rejection
	closers    []func() error
	log        zerolog.Logger
}

// Options adjust New for a particular binary.
type Options struct {
	// DisableKafka keeps turn telemetry local even when brokers are set.
	DisableKafka bool
}

// New connects every configured backend and builds the dispatcher. On error
// everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (_ *App, err error) {
	a := &App{Config: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	lex, err := loadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}

	var repo *db.Repository
	if cfg.NeedsMySQL() {
		repo, err = db.Open(ctx, cfg.MySQL.DSN(), log)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		// redis/go-redis/v9: one client shared by accounts, trash and the bloom filter.
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
	}

	if repo != nil && cfg.Store.Driver == "mysql" {
		a.Store = repo
	} else {
		a.Store = store.NewMemory()
	}

	if rdb != nil {
		a.Trash = cache.NewRedisTrash(rdb, cfg.Server.TrashTTL)
	} else {
		a.Trash = cache.NewMemoryTrash(cfg.Server.TrashTTL)
	}

	if repo != nil && cfg.Catalog.Source == "mysql" {
		a.Catalog = repo.Catalog(cfg.Catalog.Refresh)
	} else {
		src := jsonl.NewSource(cfg.Catalog.ProductsPath, cfg.Catalog.CategoriesPath, log)
		a.Catalog = src
		a.rejections = src.Rejections
	}

	dcfg := assistant.Config{
		Lexicon: lex,
		Store:   a.Store,
		Catalog: a.Catalog,
		Logger:  log,
	}

	switch {
	case cfg.Accounts.Driver == "redis" && rdb != nil:
		dcfg.Accounts = account.NewRedis(rdb)
	default:
		dcfg.Accounts = account.NewStatic()
	}

	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(llm.Config{
			Endpoint:  cfg.LLM.Endpoint,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			Timeout:   cfg.LLM.Timeout,
			RateLimit: cfg.LLM.RateLimit,
			Burst:     cfg.LLM.Burst,
		})
		dcfg.Completer = client
		dcfg.Guesser = llm.NewGuesser(client)
	} else {
		log.Info().Msg("completion service disabled, HF_API_KEY not set")
	}

	if len(cfg.Kafka.Brokers) > 0 && !opts.DisableKafka {
		var dedupe kstream.Deduper
		if rdb != nil {
			filter := bloom.New(rdb, bloom.MissesKey)
			if err := filter.Reserve(ctx, missCapacity); err != nil {
				log.Debug().Err(err).Msg("bloom reserve skipped")
			}
			dedupe = filter
		}
		a.Publisher = kstream.NewPublisher(cfg.Kafka.Brokers, Topics(cfg.Kafka), dedupe, log)
		a.closers = append(a.closers, a.Publisher.Close)
		dcfg.Events = a.Publisher
	}

	a.Dispatcher, err = assistant.New(dcfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Topics maps Kafka configuration to stream topics.
func Topics(k config.KafkaConfig) kstream.Topics {
	return kstream.Topics{
		Queries: k.QueriesTopic,
		Replies: k.RepliesTopic,
		Turns:   k.TurnsTopic,
		Misses:  k.MissesTopic,
	}
}

// Rejections returns the catalog rows dropped by the last load. Sources that
// do not keep them return nil.
func (a *App) Rejections() []schemagate.Rejection {
	if a.rejections == nil {
		return nil
	}
	return a.rejections()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default()
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	return lex, nil
}
