package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/novapay/txgate/internal/api"
	"github.com/novapay/txgate/internal/config"
	"github.com/novapay/txgate/internal/handler"
	"github.com/novapay/txgate/internal/infrastructure/kafka"
	"github.com/novapay/txgate/internal/observability"
	"github.com/novapay/txgate/internal/processor"
	"github.com/novapay/txgate/internal/repository"
	memoryrepo "github.com/novapay/txgate/internal/repository/memory"
	pgrepo "github.com/novapay/txgate/internal/repository/postgres"
	service "github.com/novapay/txgate/internal/services"
)

func main() {
	shutdownTracing, metricsHandler := observability.Setup("txgate")
	defer shutdownTracing(context.Background())

	cfg := config.Load()

	// Store: Postgres when a DSN is configured, in-memory otherwise.
	var repo repository.TransactionRepository
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer db.Close()

		pg := pgrepo.NewPostgresTransactionRepository(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		repo = pg
	} else {
		slog.Warn("POSTGRES_DSN not set, using in-memory store")
		repo = memoryrepo.NewMemoryTransactionRepository()
	}

	var producer kafka.EventProducer
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers)
		defer p.Close()
		producer = p
	}

	proc := processor.New(repo, producer, cfg.KafkaPublishTopic, cfg.SettlementDelay, cfg.ProcessorWorkers, cfg.ProcessorQueue)
	proc.Start(context.Background())
	defer proc.Stop()

	svc := service.NewTransactionService(repo, proc)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if len(cfg.KafkaBrokers) > 0 {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumeTopic, "txgate-webhook-group", svc)
		defer consumer.Close()
		go consumer.Consume(consumerCtx)
	}

	h := handler.NewHandler(svc)
	router := api.SetupRouter(h, metricsHandler)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	slog.Info("server stopped")
}
