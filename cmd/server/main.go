// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagesmith/internal/common/config"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/genai"
	"pagesmith/internal/github"
	"pagesmith/internal/notifier"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/runstore"
	"pagesmith/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting service", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	store := runstore.New(cfg.Redis)
	defer store.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		// Run records are best-effort; the pipeline works without them.
		log.Warn("redis unavailable, run status will not be recorded", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cancel()

	repos := github.NewClient(cfg.GitHub)
	generator := genai.NewClient(cfg.GenAI, log)
	notif := notifier.New(cfg.Notifier, log)
	orch := pipeline.NewOrchestrator(generator, repos, notif, store, log)

	srv := server.New(cfg, orch, store, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}
}
