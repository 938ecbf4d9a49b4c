package main

import "fmt"

// StatsCmd prints store-wide aggregate counts (a supplemented feature: the
// distilled spec has no operation for inspecting the store as a whole).
type StatsCmd struct{}

func (c *StatsCmd) Run(app *App) error {
	st, err := app.Store.Stats(app.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("sessions:      %d\n", st.SessionCount)
	fmt.Printf("messages:      %d\n", st.MessageCount)
	fmt.Printf("tool uses:     %d\n", st.ToolUseCount)
	fmt.Printf("tool results:  %d\n", st.ToolResultCount)
	fmt.Printf("summaries:     %d\n", st.SummaryCount)
	if st.OldestMessageAt.Valid {
		fmt.Printf("oldest:        %s\n", st.OldestMessageAt.String)
	}
	if st.NewestMessageAt.Valid {
		fmt.Printf("newest:        %s\n", st.NewestMessageAt.String)
	}
	return nil
}
