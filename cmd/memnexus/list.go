package main

import "fmt"

// ListCmd lists known sessions, most recently started first.
type ListCmd struct {
	Project string `short:"p" help:"Restrict to one decoded project name."`
	Limit   int    `short:"n" default:"0" help:"Maximum sessions to list (0 = no limit)."`
}

func (c *ListCmd) Run(app *App) error {
	sessions, err := app.Store.ListSessions(app.Ctx, c.Project, c.Limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-30s  %d messages  start=%s  end=%s\n", s.ID, s.ProjectName, s.MessageCount, s.StartTime, s.EndTime)
	}
	return nil
}
