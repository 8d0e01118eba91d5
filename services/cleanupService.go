package services

import (
	"context"
	"log/slog"
	"time"

	"kd-resto/repositories"
)

// CleanupService purges cancelled and abandoned unpaid orders once they are
// older than the retention window.
type CleanupService struct {
	store     *repositories.Store
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewCleanupService(store *repositories.Store, retention time.Duration, log *slog.Logger) *CleanupService {
	return &CleanupService{store: store, retention: retention, log: log, now: time.Now}
}

func (s *CleanupService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.Orders.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.log.Error("order cleanup failed", "action", "purge_orders", "error", err)
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired orders purged", "action", "purge_orders", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run purges once immediately and then every interval until ctx is done.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) error {
	return runEvery(ctx, interval, func(ctx context.Context) {
		_, _ = s.PurgeExpired(ctx)
	})
}

func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}
