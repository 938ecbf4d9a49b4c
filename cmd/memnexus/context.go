package main

import "fmt"

// ContextCmd prints the most recent messages across every session under a
// decoded project name.
type ContextCmd struct {
	ProjectName string `arg:"" help:"Decoded project name."`
	Limit       int    `short:"n" default:"50" help:"Maximum messages to show."`
}

func (c *ContextCmd) Run(app *App) error {
	rows, err := app.Store.ContextForProject(app.Ctx, c.ProjectName, c.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no context for project")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("--- %s (%s, %s) ---\n%s\n\n", r.Timestamp, r.Role, r.SessionID, r.Content)
	}
	return nil
}
