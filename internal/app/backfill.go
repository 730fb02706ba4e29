package app

import (
	"context"
	"errors"
)

// Backfill fetches and persists a historical date range for one city.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	controller := a.newController(store)
	if !controller.FetchHistorical(ctx, opts.City, opts.From, opts.To) {
		return errors.New("historical fetch failed; see log for cause")
	}
	return nil
}
