package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"signet/internal/attestation"
	"signet/internal/audit"
	"signet/internal/compiler"
	"signet/internal/engine"
	"signet/internal/engine/handler"
	enginemetrics "signet/internal/engine/metrics"
	"signet/internal/evaluation"
	httpapi "signet/internal/http"
	"signet/internal/intent"
	"signet/internal/platform/config"
	"signet/internal/platform/httpserver"
	"signet/internal/platform/logger"
	platformredis "signet/internal/platform/redis"
	"signet/internal/storage"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}

	var store storage.DataStore
	if redisClient != nil {
		store = storage.NewRedisDataStore(redisClient.Client)
		defer redisClient.Close()
		log.Info("using redis data store")
	} else {
		store = storage.NewInMemoryDataStore()
		log.Info("using in-memory data store")
	}

	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()

		var kafkaOpts []audit.KafkaOption
		if cfg.Kafka.Topic != "" {
			kafkaOpts = append(kafkaOpts, audit.WithTopic(cfg.Kafka.Topic))
		}
		publisher = audit.NewKafkaPublisher(kafkaClient, kafkaOpts...)
		log.Info("publishing audit events to kafka", "brokers", cfg.Kafka.Brokers)
	} else {
		publisher = audit.NewMemoryPublisher()
	}

	m := enginemetrics.New()

	comp := compiler.New(compiler.RegoBuilder{},
		compiler.WithLogger(log),
		compiler.WithMetrics(m),
	)
	runtime := evaluation.NewRuntime(evaluation.WithRuntimeLogger(log))
	signer := attestation.NewJWTSigner(cfg.JWTSigningKey)

	service := engine.New(store, comp, runtime, intent.NewDecoder(), signer,
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithAuditPublisher(publisher),
	)

	h := handler.New(service, store, log)
	router := httpapi.NewRouter(h)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting signet", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
