package worker

import (
	"context"
	"time"

	"roro/internal/service"
)

// AnalyticsWorker recomputes the cached public analytics summary.
type AnalyticsWorker struct {
	*ticker
	service service.AnalyticsService
}

func NewAnalyticsWorker(service service.AnalyticsService, interval time.Duration) *AnalyticsWorker {
	w := &AnalyticsWorker{service: service}
	w.ticker = newTicker("analytics", interval, 30*time.Second, w.refresh)
	return w
}

func (w *AnalyticsWorker) refresh(ctx context.Context) error {
	summary, err := w.service.RefreshSummary(ctx)
	if err != nil {
		return err
	}
	w.log.Debugw("analytics summary refreshed", "today_spins", summary.TodaySpins, "unique_customers", summary.UniqueCustomers30d)
	return nil
}
