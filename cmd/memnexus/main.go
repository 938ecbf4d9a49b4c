// Package main is the entry point for the memory-nexus CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"memory-nexus/internal/config"
	"memory-nexus/internal/logx"
	"memory-nexus/internal/nexuserr"
	"memory-nexus/internal/store"
)

var version = "dev"

// App carries the dependencies every subcommand needs, bound into kong via
// kong.Bind so each Cmd.Run(app *App) gets them without a global.
type App struct {
	Ctx    context.Context
	Store  *store.Store
	Config *config.Config
	Log    *logx.Logger
}

func init() {
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("memnexus"),
		kong.Description("Local-first search over AI assistant session logs."),
		kongVars(),
	)

	cfg, err := config.LoadFile(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(nexuserr.ExitCode(err))
	}
	cfg.OverlayEnv()
	if err := cfg.ExpandPaths(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(nexuserr.ExitCode(err))
	}

	log := logx.New().WithComponent("memnexus")

	st, err := openStoreWithRecovery(cfg, log)
	if err != nil {
		log.Error("failed to open store", map[string]any{"error": err.Error()})
		os.Exit(nexuserr.ExitCode(err))
	}
	defer st.Close()

	app := &App{Ctx: context.Background(), Store: st, Config: cfg, Log: log}

	if err := kctx.Run(app); err != nil {
		log.Error("command failed", map[string]any{"error": err.Error()})
		os.Exit(nexuserr.ExitCode(err))
	}
}

// openStoreWithRecovery opens the configured store, quarantining and
// recreating it once if it fails its quick integrity check.
func openStoreWithRecovery(cfg *config.Config, log *logx.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path, cfg.Store.QuickIntegrityCheck)
	if err == nil {
		return st, nil
	}
	if !nexuserr.IsKind(err, nexuserr.KindStoreCorrupted) {
		return nil, err
	}

	quarantined, qerr := store.QuarantineCorrupted(cfg.Store.Path)
	if qerr != nil {
		return nil, qerr
	}
	log.Warn("store failed integrity check, quarantined and recreating", map[string]any{
		"quarantined_path": quarantined,
	})
	return store.Open(cfg.Store.Path, false)
}
