// Package main defines the CLI structure using kong, grounded on the
// teacher's cmd/agent/cli.go struct-tag subcommand declarations. Per the
// distillation's own scoping, argument-parsing internals, help text, and
// shell completion are treated as an external collaborator: this surface
// is kept to the minimum needed to exercise sync/search/list/show/context/
// related/stats/purge/integrity-check.
package main

import "github.com/alecthomas/kong"

// CLI is the top-level command tree.
type CLI struct {
	Config string `help:"Path to a memory-nexus.toml config file." type:"path"`

	Sync           SyncCmd           `cmd:"" help:"Discover and ingest new or changed session log files."`
	Search         SearchCmd         `cmd:"" help:"Full-text search over ingested messages."`
	List           ListCmd           `cmd:"" help:"List known sessions."`
	Show           ShowCmd           `cmd:"" help:"Show a session's messages in order."`
	Context        ContextCmd        `cmd:"" help:"Show recent context for a project."`
	Related        RelatedCmd        `cmd:"" help:"Show sessions linked to a given session."`
	Stats          StatsCmd          `cmd:"" help:"Show store-wide statistics."`
	Purge          PurgeCmd          `cmd:"" help:"Delete sessions with no activity before a boundary timestamp."`
	IntegrityCheck IntegrityCheckCmd `cmd:"" name:"integrity-check" help:"Run a full store integrity check."`
}

func kongVars() kong.Vars {
	return kong.Vars{"version": version}
}
