package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/interfaces/http/handlers"
	"github.com/netopsio/srpulse/internal/repeat"
	"github.com/netopsio/srpulse/internal/series"
	"github.com/netopsio/srpulse/internal/surge"
)

// runServe starts the read-only HTTP API and blocks until shutdown.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	cache := httpapi.NewResponseCache(cfg.Server.RedisAddr)
	if cache != nil {
		defer cache.Close()
	}

	repos := manager.Repository()
	h := handlers.NewHandlers(handlers.Deps{
		Repos:   repos,
		Health:  manager.Health(),
		Surges:  surge.NewDetector(repos.Complaints, cfg.Thresholds.SurgeAlarming, cfg.Thresholds.SurgeCritical),
		Repeats: repeat.NewClassifier(repos.Complaints),
		Charts:  series.NewBuilder(repos.Complaints),
		Breaker: httpapi.NewStoreBreaker(),
		Cache:   cache,
		Metrics: httpapi.DefaultMetrics,
	})

	// Precedence for the bind address: --host/--port flags, then HTTP_PORT
	// (already folded into the defaults), then the config file.
	serverConfig := httpapi.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.RateLimitRPS = cfg.Server.RateLimitRPS
	if os.Getenv("HTTP_PORT") == "" {
		serverConfig.Port = cfg.Server.Port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		serverConfig.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		serverConfig.Port = port
	}

	server, err := httpapi.NewServer(serverConfig, h.Install)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	log.Info().
		Str("address", server.Address()).
		Str("health", fmt.Sprintf("http://%s/health", server.Address())).
		Str("metrics", fmt.Sprintf("http://%s/metrics", server.Address())).
		Msg("HTTP API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return err
	}

	log.Info().Msg("HTTP server shutdown complete")
	return nil
}
