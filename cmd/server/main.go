package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qiniu/testagent/internal/config"
	"github.com/qiniu/testagent/internal/pipeline"
	"github.com/qiniu/testagent/internal/webhook"

	"github.com/qiniu/x/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	port := flag.Int("port", 0, "port to listen on (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.Server.WebhookSecret == "" {
		log.Warnf("No webhook secret configured, signature validation is disabled")
	}

	components, err := pipeline.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	handler := webhook.NewHandler(cfg, func(ctx context.Context, issueNumber int) {
		components.Orchestrator.Run(ctx, issueNumber)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/hook", handler.HandleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting e2e webhook server on %s (repo %s/%s)", server.Addr, cfg.GitHub.Owner, cfg.GitHub.Repo)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	// 正在运行的 pipeline 不会被中断
	handler.Wait()
	log.Infof("Server exited")
}
