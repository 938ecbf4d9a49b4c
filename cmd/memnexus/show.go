package main

import "fmt"

// ShowCmd prints a single session's messages in chronological order.
type ShowCmd struct {
	SessionID string `arg:"" help:"Session ID to show."`
}

func (c *ShowCmd) Run(app *App) error {
	messages, err := app.Store.GetSessionMessages(app.Ctx, c.SessionID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Println("no messages for session")
		return nil
	}
	for _, m := range messages {
		fmt.Printf("--- %s (%s) ---\n%s\n\n", m.Timestamp, m.Role, m.Content)
	}
	return nil
}
