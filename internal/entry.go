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
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/articleservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/reader"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/syncer"
	"github.com/starford/raido/internal/template"
	pkgconfig "github.com/starford/raido/pkg/config"
)

// configState persists the sync cursor and running flag through the
// config file. With no config path the values live only in memory.
type configState struct {
	mu   sync.Mutex
	cfg  *Config
	path string
}

func (s *configState) SyncAt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Sync.SyncAt
}

func (s *configState) SetSyncAt(ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Sync.SyncAt = ts
	return s.save()
}

func (s *configState) SetSyncing(running bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Sync.Syncing = running
	return s.save()
}

// ResetSyncAt clears the cursor so the next run re-fetches everything.
func (s *configState) ResetSyncAt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Sync.SyncAt = ""
	return s.save()
}

func (s *configState) save() error {
	if s.path == "" {
		return nil
	}
	return pkgconfig.Save(s.path, s.cfg)
}

// core is the wired application: vault storage, article catalog, and
// (when an API key is configured) the sync engine.
type core struct {
	cfg    *Config
	store  storage.Provider
	db     *index.DB
	sync   *syncer.Syncer
	svc    *articleservice.Service
	state  *configState
	broker *sse.Broker
	log    *slog.Logger
}

func (c *core) Close() {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

// newLogger initializes the structured JSON logger and installs it as default.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// buildCore wires storage, catalog, and sync engine. withBroker controls
// whether an SSE broker is created and attached to the engine's events.
func buildCore(cfg *Config, configPath string, logger *slog.Logger, withBroker bool) (*core, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	state := &configState{cfg: cfg, path: configPath}

	// A crash can leave the persisted running flag set; it only describes
	// in-process state, so clear it on startup.
	if cfg.Sync.Syncing {
		if err := state.SetSyncing(false); err != nil {
			logger.Warn("reset stale syncing flag failed", slog.String("error", err.Error()))
		}
	}

	c := &core{cfg: cfg, store: store, db: db, state: state, log: logger}

	if withBroker {
		c.broker = sse.NewBroker(2 * time.Second)
	}

	if cfg.Sync.APIKey != "" {
		render, err := template.NewRenderer(cfg.Sync.TemplateConfig())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init templates: %w", err)
		}
		client := reader.NewClient(cfg.Sync.Endpoint, cfg.Sync.APIKey, reader.WithLogger(logger))

		opts := []syncer.Option{syncer.WithLogger(logger)}
		if c.broker != nil {
			broker := c.broker
			opts = append(opts, syncer.WithEvents(func(ev syncer.Event) {
				broker.Publish(sse.Event{Type: string(ev.Type), Data: ev})
			}))
		}
		c.sync = syncer.New(client, store, render, state, cfg.Sync.SyncerConfig(), opts...)
	} else {
		logger.Warn("no API key configured, remote sync disabled")
	}

	c.svc = articleservice.NewService(store, db, c.sync)
	return c, nil
}

// Run starts the long-running server: HTTP API, SSE stream, vault
// watcher, and the background sync scheduler.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := buildCore(cfg, app.configPath, logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	// Bring the catalog up to date with the vault before serving.
	if err := index.Sync(c.db, c.store, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker, cfg.Vault.Path, cfg.Sync.AttachmentFolder)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		index.Watch(gCtx, c.db, c.store, cfg.Vault.Path, logger, func(kind, path string) {
			c.broker.PublishArticleEvent(kind, path)
		})
		return nil
	})

	// Background sync scheduler (no-op until cancelled when frequency is 0).
	if c.sync != nil {
		g.Go(func() error {
			return syncer.NewScheduler(c.sync, cfg.Sync.Frequency, logger).Run(gCtx)
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunSync performs one sync run and exits. When resync is true the
// incremental cursor is cleared first so the whole library re-fetches.
func RunSync(ctx context.Context, resync bool, opts ...Option) error {
	c, err := oneShotCore(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.cfg.Sync.RequireAPIKey(); err != nil {
		return err
	}
	if resync {
		if err := c.state.ResetSyncAt(); err != nil {
			return fmt.Errorf("clear sync cursor: %w", err)
		}
	}
	if err := c.sync.Sync(ctx); err != nil {
		return err
	}
	// Refresh the catalog from the updated vault.
	return index.Sync(c.db, c.store, c.log)
}

// RunDelete deletes one article remotely and locally.
func RunDelete(ctx context.Context, filePath string, opts ...Option) error {
	c, err := oneShotCore(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.cfg.Sync.RequireAPIKey(); err != nil {
		return err
	}
	return c.svc.DeleteArticle(ctx, filePath)
}

// RunSearch prints full-text search hits for the query.
func RunSearch(ctx context.Context, query string, limit int, opts ...Option) error {
	c, err := oneShotCore(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := index.Sync(c.db, c.store, c.log); err != nil {
		return err
	}
	results, err := c.svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\t%s\n", r.Path, r.Title, r.Snippet)
	}
	return nil
}

// RunList prints the catalog, optionally filtered by label or state.
func RunList(ctx context.Context, label, state string, opts ...Option) error {
	c, err := oneShotCore(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := index.Sync(c.db, c.store, c.log); err != nil {
		return err
	}
	items, total, err := c.svc.ListArticles(ctx, articleservice.ListFilter{Label: label, State: state})
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Printf("%s\t%s\t%s\t%s\n", it.Path, it.ArticleID, it.State, it.Title)
	}
	fmt.Printf("%d articles\n", total)
	return nil
}

// RunMCP serves the article library over MCP stdio.
func RunMCP(_ context.Context, opts ...Option) error {
	c, err := oneShotCore(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := index.Sync(c.db, c.store, c.log); err != nil {
		c.log.Warn("initial index sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(c.svc).ServeStdio()
}

// oneShotCore wires the application for single-command runs: no broker,
// logs to stderr so stdout stays clean for command output.
func oneShotCore(opts ...Option) (*core, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return buildCore(app.config, app.configPath, logger, false)
}
