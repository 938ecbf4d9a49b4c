package main

import (
	"fmt"

	"memory-nexus/internal/nexuserr"
	"memory-nexus/internal/querylang"
	"memory-nexus/internal/store"
)

// SearchCmd runs a full-text search query against ingested messages. A
// query may combine bare terms/phrases with project:/role:/tool: filters,
// or consist of filters alone.
type SearchCmd struct {
	Query string `arg:"" help:"Search query (bare terms, \"quoted phrases\", key:value filters)."`
	Limit int    `short:"n" default:"0" help:"Maximum results (0 = use configured default)."`
}

func (c *SearchCmd) Run(app *App) error {
	q := querylang.Parse(c.Query)

	opts := store.SearchOptions{
		Limit:         c.Limit,
		CaseSensitive: app.Config.Search.CaseSensitive,
	}
	for _, f := range q.Filters {
		switch f.Key {
		case "project":
			opts.ProjectFilter = f.Value
		case "role":
			opts.RoleFilter = f.Value
		}
	}

	if !q.HasContent() && opts.ProjectFilter == "" && opts.RoleFilter == "" {
		return nexuserr.New(nexuserr.KindInvalidInput, "search requires at least one term, phrase, or filter")
	}

	if opts.Limit <= 0 {
		opts.Limit = app.Config.Search.DefaultLimit
	}

	results, err := app.Store.Search(app.Ctx, q.ToMatchExpr(), opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("[%.3f] %s %s (%s)\n    %s\n", r.Score, r.Timestamp, r.Role, r.SessionID, r.Snippet)
	}
	return nil
}
