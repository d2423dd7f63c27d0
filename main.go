package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/KraftonexStudios/hackwave-sub001/internal/adapter/llm"
	"github.com/KraftonexStudios/hackwave-sub001/internal/config"
	"github.com/KraftonexStudios/hackwave-sub001/internal/parser"
	"github.com/KraftonexStudios/hackwave-sub001/internal/service"
	"github.com/KraftonexStudios/hackwave-sub001/internal/store"
	transport "github.com/KraftonexStudios/hackwave-sub001/internal/transport/http"
	"github.com/KraftonexStudios/hackwave-sub001/internal/transport/ws"
	"github.com/KraftonexStudios/hackwave-sub001/policy"
)

func main() {
	// Local development reads a .env file; exported variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("starting hackwave",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"provider", cfg.Provider)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize generation provider
	generator := llm.NewTextGenerator(cfg.Provider, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.GenerateTimeout)

	// Initialize continuation policy engine. A broken policy is not
	// fatal; the service falls back to the built-in decision mirror.
	policyEngine, err := policy.NewEngine(context.Background(), loadPolicy(cfg))
	if err != nil {
		slog.Warn("continuation policy engine unavailable, using built-in fallback", "error", err)
	}

	// Initialize session feed hub
	feedHub := ws.NewHub()
	go feedHub.Run()

	// Initialize service
	invoker := service.NewInvoker(generator, parser.NewHeuristicParser(), cfg.GenerateTimeout)
	validator := service.NewSynthesizer(generator, cfg.GenerateTimeout)
	svc := service.New(db, invoker, validator, policyEngine, feedHub, cfg)

	// Create the HTTP server
	feedServer := ws.NewServer(cfg, feedHub)
	server := transport.NewServer(svc, feedServer)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("api started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down gracefully", "error", err)
	}

	slog.Info("hackwave stopped")
}

// setupLogging installs the process-wide structured logger.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// loadPolicy returns the continuation policy source: the configured
// file when one is set and readable, the built-in policy otherwise.
func loadPolicy(cfg *config.Config) string {
	if cfg.PolicyFile == "" {
		return policy.DefaultPolicy
	}
	content, err := os.ReadFile(cfg.PolicyFile)
	if err != nil {
		slog.Warn("could not read policy file, using built-in policy", "path", cfg.PolicyFile, "error", err)
		return policy.DefaultPolicy
	}
	return string(content)
}
