package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/antoniostano/aria/internal/agent"
	"github.com/antoniostano/aria/internal/brain"
	"github.com/antoniostano/aria/internal/config"
	"github.com/antoniostano/aria/internal/history"
	"github.com/antoniostano/aria/internal/httpapi"
	"github.com/antoniostano/aria/internal/hub"
	"github.com/antoniostano/aria/internal/memory"
	"github.com/antoniostano/aria/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	historyStore, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer historyStore.Close()

	storeMode := "in-memory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		storeMode = "postgres"
	}
	log.Printf("history store: %s", storeMode)

	backend, brainMode, err := brain.NewBackend(brain.Config{
		Mode:    cfg.BrainMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatalf("brain init failed: %v", err)
	}
	log.Printf("brain backend: %s (models: %s)", brainMode, strings.Join(cfg.ChatModels, ", "))
	dispatcher := brain.NewDispatcher(backend, cfg.ChatModels, cfg.GenerateTimeout)

	index, err := memory.NewIndex(ctx, cfg.DatabaseURL, cfg.MemoryEmbeddingDim)
	if err != nil {
		log.Fatalf("memory index init failed: %v", err)
	}
	defer index.Close()

	embedder := memory.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.MemoryEmbeddingDim)
	memories := memory.NewStore(embedder, index, cfg.MemoryTopK, cfg.MemoryTimeout, metrics)

	agents := hub.New(func(sessionID string) *agent.Agent {
		ledger := history.NewLedger(sessionID, historyStore, cfg.HistoryRetention)
		return agent.New(sessionID, ledger, dispatcher, memories, metrics, cfg.SystemPrompt, cfg.HistoryWindow)
	})

	api := httpapi.New(cfg, agents, metrics, httpapi.Info{
		StoreMode: storeMode,
		BrainMode: brainMode,
	})
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
