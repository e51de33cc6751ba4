package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"storefront-assistant/internal/app"
	"storefront-assistant/internal/catalogapi"
	"storefront-assistant/internal/config"
	"storefront-assistant/internal/httpapi"
	"storefront-assistant/internal/kstream"
	"storefront-assistant/internal/obs"
	"storefront-assistant/internal/processing"
)

func main() {
	cfg, err := config.Load(getEnv("ASSISTANT_CONFIG", ""))
	if err != nil {
		bootLog := obs.NewLogger(obs.LogConfig{ServiceName: "assistant-api"})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := obs.NewLogger(obs.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "assistant-api",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("wire assistant")
	}
	defer a.Close()

	// Kafka query consumer, when brokers are configured.
	var pool *processing.Pool
	if a.Publisher != nil {
		pool = processing.NewPool(ctx, cfg.Kafka.Workers, cfg.Kafka.Workers*4)
		reader := kstream.KafkaReader(cfg.Kafka.Brokers, cfg.Kafka.QueriesTopic, cfg.Kafka.GroupID)
		consumer := kstream.NewConsumer(reader, a.Dispatcher, a.Publisher, pool, log)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("query consumer stopped")
			}
		}()
	}

	// Setup HTTP routes
	r := mux.NewRouter()
	httpapi.NewService(a.Dispatcher, a.Store, a.Trash, log).RegisterRoutes(r)
	catalogapi.NewService(a.Catalog, log).RegisterRoutes(r)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("assistant API listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
	}

	cancel()
	if pool != nil {
		pool.Close()
	}
	log.Info().Msg("stopped")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
