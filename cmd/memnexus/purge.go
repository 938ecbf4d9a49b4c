package main

import "fmt"

// PurgeCmd deletes every session whose last activity is strictly before a
// boundary timestamp (a supplemented feature: the distilled spec has no
// retention story, but a store that only ever grows is a gap a real user
// would hit quickly).
type PurgeCmd struct {
	Before string `arg:"" help:"ISO-8601 UTC boundary timestamp; sessions last active before this are deleted."`
}

func (c *PurgeCmd) Run(app *App) error {
	n, err := app.Store.Purge(app.Ctx, c.Before)
	if err != nil {
		return err
	}
	fmt.Printf("purged %d session(s)\n", n)
	return nil
}
