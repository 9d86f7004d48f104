package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docschat/internal/app"
	"docschat/internal/config"
	"docschat/internal/database"
	"docschat/internal/handlers"
	"docschat/internal/ingest"
	"docschat/internal/logging"
	"docschat/internal/router"
	"docschat/internal/services"
	"docschat/internal/websocket"
	"docschat/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	// ──── Step 2: Initialize Logger ────
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("starting docs chat server", zap.String("env", cfg.Env))

	// ──── Step 3: Initialize LLM Clients ────
	providers, err := app.NewProviders(context.Background(), cfg)
	if err != nil {
		logger.Fatal("LLM client initialization failed", zap.Error(err))
	}
	defer providers.Close()
	logger.Info("LLM clients initialized",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("embedding_provider", cfg.EmbeddingProvider),
	)

	// ──── Step 4: Open Vector Store ────
	store, closeStore, err := app.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("vector store initialization failed", zap.Error(err))
	}
	defer closeStore()
	logger.Info("vector store ready", zap.String("store", cfg.VectorStore))

	// ──── Initialize Services & Handlers ────
	ragService := services.NewRAGService(providers.Embedder, store, providers.Chat, logger)
	pagesService := services.NewPagesService(store)

	chatHandler := handlers.NewChatHandler(ragService, logger)
	pagesHandler := handlers.NewPagesHandler(pagesService, logger)

	// ──── Step 5: Ingestion Queue (optional) ────
	var (
		workerPool *worker.Pool
		wsHub      *websocket.Hub
	)
	if cfg.RedisEnabled() {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClients.Close()

		processor := ingest.NewProcessor(
			ingest.NewExtractor(&http.Client{Timeout: 60 * time.Second}),
			providers.Embedder,
			providers.Ingest,
			store,
			cfg.DocsSource,
			ingest.DefaultMaxConcurrent,
			logger,
		)

		workerPool = worker.NewPool(redisClients.Queue, processor, cfg.IngestWorkers, logger)
		workerPool.Start()

		wsHub = websocket.NewHub(redisClients.PubSub, worker.UpdatesChannel, cfg.FrontendURL, logger)
		logger.Info("ingestion queue enabled", zap.Int("workers", cfg.IngestWorkers))
	} else {
		logger.Info("REDIS_URL not set, ingestion queue disabled")
	}

	// ──── Step 6: Start HTTP Server ────
	r := router.New(chatHandler, pagesHandler, wsHub, cfg.FrontendURL, logger)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: a chat reply is bounded only by the request context
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		if wsHub != nil {
			wsHub.Close()
		}
		if workerPool != nil {
			workerPool.Stop()
		}
	}()

	logger.Info("docs chat server ready",
		zap.String("chat", fmt.Sprintf("http://localhost:%s/api/chat", cfg.Port)),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	<-stopped
}
