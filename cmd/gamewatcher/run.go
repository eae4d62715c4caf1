package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gamewatcher/internal/capture"
	"gamewatcher/internal/config"
	"gamewatcher/internal/ocr"
	"gamewatcher/internal/playback"
	"gamewatcher/internal/resilience"
	"gamewatcher/internal/server"
	"gamewatcher/internal/voicepack"
	"gamewatcher/internal/watcher"
)

func newRunCommand() *cobra.Command {
	var addr string
	var framesDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the watcher and its control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcher(cmd.Context(), addr, framesDir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	cmd.Flags().StringVar(&framesDir, "frames-dir", "", "replay PNG frames from a directory instead of capturing the screen")

	return cmd
}

func runWatcher(ctx context.Context, addr, framesDir string) error {
	cfg := config.Load()
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One watcher per machine; the lock lives next to the session files
	if err := os.MkdirAll(cfg.SessionDir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.SessionDir, "gamewatcher.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another gamewatcher instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	var pack *voicepack.Pack
	if _, err := os.Stat(cfg.PackPath); err == nil {
		pack, err = voicepack.Load(cfg.PackPath, cfg.CatalogPath)
		if err != nil {
			return err
		}
		slog.Info("voice pack loaded", "name", pack.Name, "lines", pack.Len())
	} else {
		slog.Warn("no voice pack manifest, running in record-only mode", "path", cfg.PackPath)
	}

	recorder, err := voicepack.NewRecorder(cfg.SessionDir,
		voicepack.DefaultRecorderMaxSize, voicepack.DefaultRecorderFlushDelay)
	if err != nil {
		return err
	}

	engine, err := ocr.New(cfg.OCREngine, cfg.OCRLang, cfg.OCRAddr, cfg.OCRTimeout)
	if err != nil {
		return err
	}
	resilient := ocr.WithResilience(engine, resilience.OCRRetryConfig(), resilience.OCRBreakerConfig())

	var source capture.Source
	if framesDir != "" {
		source, err = capture.NewDir(framesDir)
		if err != nil {
			return err
		}
	} else {
		source = capture.New(cfg.CaptureTool)
	}

	audio, err := playback.New(playback.Config{
		QueueSize:    cfg.QueueSize,
		MasterVolume: cfg.MasterVolume,
		Autoplay:     cfg.AutoplayEnabled,
		Cooldown:     time.Duration(cfg.AutoplayCooldown * float64(time.Second)),
	})
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}

	w := watcher.New(cfg, source, resilient, audio, pack, recorder)
	srv := server.New(w)

	audio.Start(signalCtx)
	w.Start(signalCtx)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("control server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-signalCtx.Done():
		slog.Info("shutting down...")
	case serveErr = <-errCh:
		slog.Error("http server error", "error", serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	w.Stop()
	audio.Stop()
	slog.Info("shutdown complete")
	return serveErr
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
