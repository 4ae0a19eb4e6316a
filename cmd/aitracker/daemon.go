package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/aitracker/internal/audit"
	"github.com/fentz26/aitracker/internal/retention"
	"github.com/fentz26/aitracker/internal/server"
	"github.com/fentz26/aitracker/internal/store"
)

var listenAddr string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the Progress Store",
	Long:  `Starts the Progress Store which serves the progress HTTP API and prunes old history.`,
	RunE:  runDaemon,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete progress history older than the retention window",
	RunE:  runPrune,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides LISTEN_ADDR)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}
	logger.Info("starting progress store daemon", "environment", cfg.Environment)

	// Initialize store
	repo, err := store.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	logger.Info("database opened", "driver", store.Driver(repo))

	cur, err := loadCurriculum()
	if err != nil {
		repo.Close()
		return err
	}

	// Create service and server
	service := server.NewService(repo, audit.NewRecorder(repo), cur, server.FrontendConfig{
		APIURL:                  cfg.APIURL,
		Debug:                   cfg.Debug,
		Environment:             cfg.Environment,
		AnalyticsEnabled:        true,
		SpacedRepetitionEnabled: true,
	}, logger)
	srv := server.NewServer(service, server.Config{
		Addr:        addr,
		CORSOrigins: cfg.CORSOrigins,
	}, logger)

	worker := retention.New(repo, &retention.Config{
		RetentionDays: cfg.RetentionDays,
		Interval:      time.Hour,
	}, logger)
	worker.Start()
	defer worker.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			repo.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := repo.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	repo, err := store.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	worker := retention.New(repo, &retention.Config{RetentionDays: cfg.RetentionDays}, logger)
	n, err := worker.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d history rows older than %d days\n", n, cfg.RetentionDays)
	return nil
}
