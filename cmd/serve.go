package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pjw57/nowspinning/internal/api"
	"github.com/pjw57/nowspinning/internal/config"
	"github.com/pjw57/nowspinning/internal/engine"
	"github.com/pjw57/nowspinning/internal/history"
	"github.com/pjw57/nowspinning/internal/logging"
	"github.com/pjw57/nowspinning/internal/telemetry"
	"github.com/pjw57/nowspinning/pkg/spotify"
)

// How long finished plays are kept in the history store.
const historyRetention = 90 * 24 * time.Hour

// spotifyLogger adapts zerolog to the spotify.Logger interface.
type spotifyLogger struct {
	logger zerolog.Logger
}

func (l spotifyLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

var (
	serveListenAddr string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the now-playing service",
	Long: `Run the now-playing service that keeps Spotify playback state synced
and serves it over HTTP.

The service will:
- Poll the Spotify API at an adaptive cadence (every few seconds while
  music plays, far less often while idle)
- Cache playback snapshots so bursts of readers cost one upstream call
- Retry transient upstream failures with exponential backoff and honor
  rate limit hints
- Serve GET /now-playing with cache freshness headers, plus health and
  Prometheus metrics endpoints
- Optionally record play history for GET /recently-played
- Handle graceful shutdown on SIGINT/SIGTERM

The service runs in the foreground and logs to stderr by default.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Command-line flags
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address (overrides config, default :8080)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level (debug, info, warn, error; overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate Spotify credentials
	if err := cfg.ValidateSpotify(); err != nil {
		return err
	}

	// Apply flag overrides
	if serveListenAddr != "" {
		cfg.ListenAddr = serveListenAddr
	}
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	// Set up logging
	logger, closeLogger, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLogger()

	logger.Info().
		Str("version", version).
		Msg("Starting nowspinning")

	// Create Spotify client
	client, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Logger:       spotifyLogger{logger: logger.With().Str("component", "spotify").Logger()},
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify client: %w", err)
	}

	// Register metrics
	metrics, err := telemetry.NewPrometheusCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Create optional history store and recorder
	var (
		store    *history.Store
		recorder *history.Recorder
	)
	if cfg.History.Enabled {
		dbPath := cfg.HistoryDBPath()
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}

		store, err = history.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer func() { _ = store.Close() }()

		recorder = history.NewRecorder(store, logger)
		logger.Info().Str("db_path", dbPath).Msg("Play history enabled")
	}

	// Create engine
	opts := engine.Options{
		Upstream: engine.NewUpstream(client),
		Logger:   logger,
		Metrics:  metrics,
	}
	if recorder != nil {
		opts.OnSnapshot = recorder.Observe
	}
	eng, err := engine.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	// Create HTTP server
	server, err := api.NewServer(api.Options{
		Source:  eng,
		History: store,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Second signal forces exit
		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	// Start the sync scheduler
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Scheduler error")
		}
	}()

	// Start the HTTP server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until shutdown is requested or the server dies
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		cancel()
		<-schedulerDone
		return fmt.Errorf("http server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	<-schedulerDone

	if recorder != nil {
		// Close the open play span and trim old records
		recorder.Close(shutdownCtx)
		if _, err := store.Cleanup(shutdownCtx, historyRetention); err != nil {
			logger.Warn().Err(err).Msg("Failed to cleanup history")
		}
	}

	logger.Info().Msg("Service stopped")
	return nil
}
