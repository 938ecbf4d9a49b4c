package main

import "fmt"

// RelatedCmd prints the sessions linked to a given session, ranked by
// weighted link strength — parent/subagent "continues" edges and any other
// session-to-session relationship recorded in the link table.
type RelatedCmd struct {
	SessionID string `arg:"" help:"Session ID to find related sessions for."`
	Count     int    `short:"n" default:"0" help:"Maximum related sessions to return (0 = use default)."`
}

func (c *RelatedCmd) Run(app *App) error {
	related, err := app.Store.Related(app.Ctx, c.SessionID, c.Count)
	if err != nil {
		return err
	}
	if len(related) == 0 {
		fmt.Println("no related sessions")
		return nil
	}
	for _, r := range related {
		fmt.Printf("%s  %-30s  %d messages  start=%s\n", r.ID, r.ProjectName, r.MessageCount, r.StartTime)
	}
	return nil
}
