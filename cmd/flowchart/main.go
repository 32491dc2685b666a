package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/kode4food/flowchart"
	"github.com/kode4food/flowchart/internal/archive"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/server"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/log"
)

type flowchart struct {
	cfg        *config.Config
	store      *store.Redis
	blob       *archive.Blob
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrCreateStore   = errors.New("failed to create lesson store")
	ErrCreateArchive = errors.New("failed to open archive bucket")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	f := &flowchart{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	f.setupLogging()

	if err := f.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (f *flowchart) run() error {
	if err := f.initializeStores(); err != nil {
		return err
	}

	if err := f.startServer(); err != nil {
		f.closeStores()
		return err
	}

	signal.Notify(f.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(f.quit)
	<-f.quit

	f.shutdown()
	return nil
}

func (f *flowchart) setupLogging() {
	level := log.ParseLevel(f.cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Flowchart service starting",
		slog.String("log_level", f.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("redis_addr", f.cfg.Store.Addr),
		slog.Int("redis_db", f.cfg.Store.DB),
		slog.String("redis_prefix", f.cfg.Store.Prefix),
		slog.Bool("archive_enabled", f.cfg.Archive.BucketURL != ""),
		slog.String("api_host", f.cfg.APIHost),
		slog.Int("api_port", f.cfg.APIPort))
}

func (f *flowchart) initializeStores() error {
	ctx := context.Background()

	st, err := store.NewRedis(ctx, f.cfg.Store)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateStore, err)
	}
	f.store = st

	if f.cfg.Archive.BucketURL == "" {
		return nil
	}
	b, err := archive.NewBlob(
		ctx, f.cfg.Archive.BucketURL, f.cfg.Archive.Prefix,
	)
	if err != nil {
		_ = f.store.Close()
		return fmt.Errorf("%w: %w", ErrCreateArchive, err)
	}
	f.blob = b
	return nil
}

func (f *flowchart) startServer() error {
	deps := server.Dependencies{
		Store:    f.store,
		Reporter: diagnostics.NewLogReporter(slog.Default()),
	}
	if f.blob != nil {
		deps.Archiver = archive.NewArchiver(f.store, f.blob)
	}

	srv, err := server.NewServer(f.cfg.Authoring, deps)
	if err != nil {
		return err
	}
	f.apiServer = srv

	f.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", f.cfg.APIHost, f.cfg.APIPort),
		Handler: f.apiServer.SetupRoutes(),
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", f.httpServer.Addr))
		err := f.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
	return nil
}

func (f *flowchart) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), f.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := f.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	f.apiServer.CloseWebSockets()
	f.closeStores()

	slog.Info("Server exited")
}

func (f *flowchart) closeStores() {
	if f.blob != nil {
		if err := f.blob.Close(); err != nil {
			slog.Error("Archive close failed", log.Error(err))
		}
	}
	if err := f.store.Close(); err != nil {
		slog.Error("Store close failed", log.Error(err))
	}
}
