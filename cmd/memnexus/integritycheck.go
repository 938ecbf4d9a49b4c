package main

import (
	"fmt"

	"memory-nexus/internal/nexuserr"
)

// IntegrityCheckCmd runs a full PRAGMA integrity_check against the store.
type IntegrityCheckCmd struct{}

func (c *IntegrityCheckCmd) Run(app *App) error {
	ok, err := app.Store.IntegrityCheck(app.Ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("store failed integrity check")
		return nexuserr.New(nexuserr.KindStoreCorrupted, "integrity check reported corruption")
	}
	fmt.Println("ok")
	return nil
}
