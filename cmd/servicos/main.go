package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"servicos/internal/blobs"
	"servicos/internal/board"
	"servicos/internal/config"
	"servicos/internal/editor"
	"servicos/internal/models"
	"servicos/internal/server"
	"servicos/internal/storage/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	cmd := &cobra.Command{
		Use:           "servicos",
		Short:         "Kanban board for prosthetics lab services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, &loaded, cfg)
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "servicos:", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", "", "HTTP listen address (overrides SERVICOS_ADDR)")
	cmd.Flags().StringVar(&cfg.DBPath, "db", "", "Path to sqlite database file, :memory: keeps the board in memory (overrides SERVICOS_DB_PATH)")
	cmd.Flags().StringVar(&cfg.StaticDir, "static", "", "Directory with built frontend (overrides SERVICOS_STATIC_DIR)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides SERVICOS_LOG_LEVEL)")
	return cmd
}

// applyFlags copies explicitly set flags over the environment values.
func applyFlags(cmd *cobra.Command, dst *config.Config, flags config.Config) {
	if cmd.Flags().Changed("addr") {
		dst.Addr = flags.Addr
	}
	if cmd.Flags().Changed("db") {
		dst.DBPath = flags.DBPath
	}
	if cmd.Flags().Changed("static") {
		dst.StaticDir = flags.StaticDir
	}
	if cmd.Flags().Changed("log-level") {
		dst.LogLevel = flags.LogLevel
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	logger.Info("Serviços board", slog.String("db", cfg.DBPath), slog.String("static", cfg.StaticDir))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	b := board.New(board.WithRepository(store), board.WithLogger(logger))
	if err := b.Load(ctx); err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	if cfg.SeedDemo && b.Empty() {
		if err := seedDemo(ctx, b); err != nil {
			return fmt.Errorf("seed board: %w", err)
		}
		logger.Info("seeded demo card")
	}

	sessions := editor.NewSessions(cfg.EditorMaxSessions, cfg.EditorTTL)
	stopCleanup := sessions.StartCleanup(max(cfg.EditorTTL/4, time.Second))
	defer stopCleanup()

	srv := server.New(b, sessions, blobs.NewStore(cfg.MaxUploadBytes), logger, server.Config{
		StaticDir:     cfg.StaticDir,
		LoginUser:     cfg.LoginUser,
		LoginPassword: cfg.LoginPassword,
		HealthCheck:   store.Ping,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

// seedDemo places the sample job the board starts with.
func seedDemo(ctx context.Context, b *board.Board) error {
	_, err := b.Seed(ctx, models.ColumnEmProducao, models.Card{
		Identifier: "PROT-001",
		Title:      "Prótese Lucas",
		Priority:   models.PriorityHigh,
	})
	return err
}
