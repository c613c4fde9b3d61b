package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/config"
	"github.com/papapumpkin/critpath/internal/engine"
	"github.com/papapumpkin/critpath/internal/store"
	"github.com/papapumpkin/critpath/internal/telemetry"
	"github.com/papapumpkin/critpath/internal/ui"
)

// app bundles everything a command needs. Close releases it.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	store   store.Store
	tel     *telemetry.Emitter
	engine  *engine.Engine
	printer *ui.Printer
}

// openApp loads configuration and wires the store, telemetry and engine.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)

	st, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var tel *telemetry.Emitter
	if cfg.Telemetry.Path != "" {
		tel, err = telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	eng := engine.New(st, engine.Options{
		Logger:        logger,
		MaxChainDepth: cfg.Chain.MaxDepth,
		SuggestLimit:  cfg.Suggest.Limit,
		CacheEnabled:  cfg.Cache.Enabled,
		Telemetry:     tel,
	})
	return &app{
		cfg:     cfg,
		log:     logger,
		store:   st,
		tel:     tel,
		engine:  eng,
		printer: ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}, nil
}

func (a *app) Close() {
	if err := a.tel.Close(); err != nil {
		a.log.Warn("closing telemetry", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
