// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/berkana/internal/api"
	"github.com/starford/berkana/internal/bridge"
	"github.com/starford/berkana/internal/kv"
	"github.com/starford/berkana/internal/mcpserver"
	"github.com/starford/berkana/internal/mirror"
	"github.com/starford/berkana/internal/sse"
	"github.com/starford/berkana/internal/widget"
)

// newHTTPHandler builds the chi router. Request logging goes through slog
// rather than chi's stock logger so HTTP traffic never leaks onto stdout,
// which carries the host-bridge and MCP streams.
func newHTTPHandler(ctrl *widget.Controller, cfg *Config, events http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, SSE included.
	r.Mount("/api", api.NewRouter(ctrl, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))

	return r
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. Logs go to stderr: the stdio
	// bridge and the MCP server own the process's stdout.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("bridge_mode", cfg.Bridge.Mode),
		slog.Bool("mirror", cfg.Mirror.Enabled()),
		slog.Bool("mcp", cfg.MCP.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the store directory exists.
	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	// Initialize key-value store.
	store, err := kv.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	// Host bridge.
	hostBridge := app.bridge
	if hostBridge == nil && cfg.Bridge.Mode == BridgeModeStdio {
		stream := os.Stdout
		if cfg.Bridge.Stream == BridgeStreamStderr {
			stream = os.Stderr
		}
		hostBridge = bridge.NewStdio(stream, logger)
	}

	// SSE broker.
	broker := sse.NewBroker(100 * time.Millisecond)
	defer broker.Close()

	// Widget controller. Saved notes are pushed to the UI and mirrored out;
	// the mirror is assigned below, before any event can fire.
	var mir *mirror.Mirror
	ctrl := widget.New(store, hostBridge, widget.Options{
		SaveWindow:   cfg.Widget.SaveWindow(),
		Transparency: cfg.Widget.Transparency,
		PersistTheme: cfg.Widget.PersistTheme,
		Logger:       logger,
		OnEvent: func(kind string, snap widget.Snapshot) {
			broker.PublishWidgetEvent(kind, snap)
			if kind == "note.saved" && mir != nil {
				if err := mir.WriteSnapshot(snap.Text); err != nil {
					logger.Warn("mirror write failed", slog.String("error", err.Error()))
				}
			}
		},
	})
	defer ctrl.Close()

	if cfg.Mirror.Enabled() {
		mir, err = mirror.New(cfg.Mirror.Path, ctrl, logger)
		if err != nil {
			return fmt.Errorf("init mirror: %w", err)
		}
	}

	// Load persisted state and announce readiness.
	if err := ctrl.Ready(); err != nil {
		return fmt.Errorf("load widget state: %w", err)
	}
	broker.PublishReady(ctrl.State())

	if mir != nil {
		if err := mir.WriteSnapshot(ctrl.State().Text); err != nil {
			logger.Warn("initial mirror write failed", slog.String("error", err.Error()))
		}
	}

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newHTTPHandler(ctrl, cfg, broker, logger),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gCtx := errgroup.WithContext(runCtx)

	// Start mirror watcher.
	if mir != nil {
		g.Go(func() error {
			return mir.Watch(gCtx)
		})
	}

	// Start MCP server on stdio.
	if cfg.MCP.Enabled {
		mcp := mcpserver.New(ctrl)
		g.Go(func() error {
			logger.Info("Starting MCP server on stdio")
			if err := mcp.Listen(gCtx, os.Stdin, os.Stdout); err != nil && gCtx.Err() == nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Persist any trailing edit burst before the process exits.
		if err := ctrl.Close(); err != nil {
			logger.Error("widget flush error", slog.String("error", err.Error()))
		}

		// Release the mirror watcher and MCP listener.
		cancelRun()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
