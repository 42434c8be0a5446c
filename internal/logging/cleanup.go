package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays. It stops when done is closed.
func StartCleanup(db *gorm.DB, retentionDays int, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleteOlderThan(db, time.Now().AddDate(0, 0, -retentionDays))
			case <-done:
				return
			}
		}
	}()
}

func deleteOlderThan(db *gorm.DB, cutoff time.Time) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "logging.cleanup", "error", result.Error.Error())
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
}
