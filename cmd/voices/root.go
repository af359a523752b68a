package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/voices/internal/api"
	"github.com/hyperengineering/voices/internal/artifact"
	"github.com/hyperengineering/voices/internal/batch"
	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/config"
	"github.com/hyperengineering/voices/internal/generation"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/prompt"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/variety"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var configPath string

// newGenerator builds the generation client. Replaced in tests.
var newGenerator = generation.NewFromConfig

var rootCmd = &cobra.Command{
	Use:           "voices",
	Short:         "Voices - synthetic peer testimonial pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			os.Setenv("VOICES_CONFIG_PATH", configPath)
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (overrides VOICES_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(varietyCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(postsCmd)
}

// app holds the components shared by serve and generate.
type app struct {
	cfg       *config.Config
	store     *store.SQLiteStore
	catalog   *catalog.Catalog
	variety   *variety.Validator
	generator generation.Generator
	batches   *batch.Service
	uploader  artifact.Uploader
	closer    io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "categories", len(cat.CategoryNames()))

	gen, closer, err := newGenerator(ctx, cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	slog.Info("generator initialized", "generator", gen.Name())

	uploader, err := artifact.NewUploader(cfg.Artifacts)
	if err != nil {
		closer.Close()
		return nil, err
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		closer.Close()
		return nil, err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	v := variety.New(variety.Thresholds{
		ViolationAbove: cfg.Variety.ViolationAbove,
		WarnAt:         cfg.Variety.WarnAt,
	})
	orch := pipeline.NewOrchestrator(gen, prompt.NewBuilder(cat), cfg.Generation.MaxRetries)
	coord := pipeline.NewCoordinator(cat, orch)

	return &app{
		cfg:       cfg,
		store:     db,
		catalog:   cat,
		variety:   v,
		generator: gen,
		batches:   batch.NewService(coord, db, v, cfg.Persona.Author),
		uploader:  uploader,
		closer:    closer,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.closer.Close())
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log, os.Stdout)
	slog.Info("configuration loaded", "level", cfg.Log.Level, "provider", cfg.Generation.Provider)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Options{
		Store:        a.store,
		Batches:      a.batches,
		Catalog:      a.catalog,
		Variety:      a.variety,
		Uploader:     a.uploader,
		APIKey:       cfg.Auth.APIKey,
		Version:      Version,
		Generator:    a.generator.Name(),
		DeleteRate:   cfg.Server.DeleteRate,
		// Leave room to write the response before the server drops the connection.
		BatchTimeout: time.Duration(cfg.Server.WriteTimeout) * 9 / 10,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is returned after Shutdown; anything else is fatal.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Drains in-flight requests, including running batches.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := a.Close(); err != nil {
		slog.Error("close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// setupLogger installs the default slog logger on w.
func setupLogger(cfg config.LogConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// loadCatalog reads a catalog override file, or returns the built-in catalog.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.MustDefault(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}
