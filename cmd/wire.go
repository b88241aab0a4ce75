package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hedging-my-bets/petprogress/internal/config"
	"github.com/hedging-my-bets/petprogress/internal/progression"
	"github.com/hedging-my-bets/petprogress/internal/store"
	"github.com/hedging-my-bets/petprogress/internal/tracker"
)

// appEnv bundles everything a command needs: resolved config, the
// open store, and the core service with the document loaded.
type appEnv struct {
	cfg *config.Config
	st  *store.Store
	svc *tracker.Service
}

// openEnv resolves configuration, opens the shared store, and loads
// the document. Callers must close the returned env.
func openEnv(cmd *cobra.Command) (*appEnv, error) {
	// A .env in the working directory is a convenience for development;
	// absence is the normal case.
	_ = godotenv.Load()

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dir, err := resolveDataDir(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	st, err := store.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	stages := progression.DefaultConfig()
	if cfg.StageFile != "" {
		stages, err = progression.Load(cfg.StageFile)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("load stage file: %w", err)
		}
	}

	svc, err := tracker.New(st, stages, loc)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &appEnv{cfg: cfg, st: st, svc: svc}, nil
}

func (e *appEnv) close() {
	if err := e.st.Close(); err != nil {
		slog.Warn("store close failed", "error", err)
	}
}

// resolveDataDir returns the data directory using --data flag (highest
// priority), then the config file / PETPROGRESS_DATA env var, then the
// default XDG path.
func resolveDataDir(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("data"); p != "" {
		return p, nil
	}
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	return store.DefaultDir()
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
