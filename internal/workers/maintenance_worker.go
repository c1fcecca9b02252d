package workers

import (
	"context"
	"time"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
	"qaforum_backend/internal/services"

	"gorm.io/gorm"
)

// HitCleaner - хранилище лимитера, которое надо периодически чистить
type HitCleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
}

// MaintenanceWorker removes expired notifications and stale rate-limit hits.
type MaintenanceWorker struct {
	db            *gorm.DB
	notifications services.NotificationService
	limiter       HitCleaner
	interval      time.Duration
	limiterMaxAge time.Duration
}

func NewMaintenanceWorker(db *gorm.DB, notifications services.NotificationService, limiter HitCleaner, interval, limiterMaxAge time.Duration) *MaintenanceWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &MaintenanceWorker{
		db:            db,
		notifications: notifications,
		limiter:       limiter,
		interval:      interval,
		limiterMaxAge: limiterMaxAge,
	}
}

// Start запускает фоновые задачи
func (w *MaintenanceWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *MaintenanceWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Maintenance worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход очистки
func (w *MaintenanceWorker) RunOnce(ctx context.Context) {
	purged, err := w.notifications.PurgeExpired(ctx, w.db)
	logger.WorkerLog("maintenance", "purge_expired_notifications", err, "deleted", purged)
	if err == nil {
		metrics.ExpiredNotificationsPurged.Add(float64(purged))
	}

	if w.limiter != nil {
		removed, err := w.limiter.Cleanup(ctx, w.limiterMaxAge)
		logger.WorkerLog("maintenance", "cleanup_rate_limits", err, "deleted", removed)
	}
}
