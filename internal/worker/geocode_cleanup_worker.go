package worker

import (
	"context"
	"time"

	"roro/internal/service"
)

// GeocodeCleanupWorker deletes expired rows from the postal-code cache table.
type GeocodeCleanupWorker struct {
	*ticker
	service service.GeocodeService
}

func NewGeocodeCleanupWorker(service service.GeocodeService, interval time.Duration) *GeocodeCleanupWorker {
	w := &GeocodeCleanupWorker{service: service}
	w.ticker = newTicker("geocode_cleanup", interval, time.Minute, w.purge)
	return w
}

func (w *GeocodeCleanupWorker) purge(ctx context.Context) error {
	removed, err := w.service.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		w.log.Infow("expired geocode entries removed", "count", removed)
	}
	return nil
}
