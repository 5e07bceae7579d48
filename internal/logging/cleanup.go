package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retention.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	startCleanup(24*time.Hour, retention, func(cutoff time.Time) (int64, error) {
		result := db.Where("timestamp < ?", cutoff).Delete(&SystemLog{})
		return result.RowsAffected, result.Error
	}, done)
}

func startCleanup(interval, retention time.Duration, prune func(cutoff time.Time) (int64, error), done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := prune(time.Now().Add(-retention))
				if err != nil {
					slog.Warn("log cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
