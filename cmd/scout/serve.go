package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/handler"
	"github.com/young1lin/scout/internal/storage"
	"github.com/young1lin/scout/pkg/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research agent as an HTTP service",
	Long: `Exposes POST /v1/research, GET /v1/research/{id} and GET /health.
Completed findings are persisted and retrievable by ID.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSetup()
		defer logger.Sync()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
			fmt.Fprintln(os.Stderr, "failed to create data directory:", err)
			os.Exit(1)
		}

		store, err := storage.NewHistoryStore(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open history store:", err)
			os.Exit(1)
		}
		defer store.Close()

		a := agent.New(cfg)
		startServer(cfg, a, store)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
}

func startServer(cfg *config.Config, a *agent.Agent, store *storage.HistoryStore) {
	researchHandler := handler.NewResearchHandler(cfg, a, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      researchHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	fmt.Printf("scout %s listening on http://%s:%d\n", Version, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  POST /v1/research       run a research query\n")
	fmt.Printf("  GET  /v1/research/{id}  fetch stored findings\n")
	fmt.Printf("  GET  /health            health check\n")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
