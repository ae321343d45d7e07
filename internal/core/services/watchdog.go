package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

const (
	watchdogInterval      = 10 * time.Minute
	watchdogDiskThreshold = 70.0 // percent
	watchdogRetention     = 7 * 24 * time.Hour
)

// RunWatchdog starts the auto-purge background service. When disk usage
// crosses the threshold, processed webhook audit logs past retention are
// deleted in batches so the box recovers without operator action.
func RunWatchdog(db *sql.DB) {
	ticker := time.NewTicker(watchdogInterval)

	go func() {
		for range ticker.C {
			usage, err := disk.Usage(".")
			if err != nil {
				slog.Warn("Watchdog disk check failed", "error", err)
				continue
			}

			if usage.UsedPercent < watchdogDiskThreshold {
				slog.Debug("Watchdog disk usage OK", "used_percent", usage.UsedPercent)
				continue
			}

			slog.Warn("Watchdog disk pressure, purging old webhook logs",
				"used_percent", usage.UsedPercent,
			)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			result, err := db.ExecContext(ctx, `
				DELETE FROM webhook_logs
				WHERE status = ?
				AND created_at < ?
				LIMIT 1000
			`, "processed", time.Now().Add(-watchdogRetention))
			cancel()

			if err != nil {
				slog.Error("Watchdog purge failed", "error", err)
				continue
			}

			rows, _ := result.RowsAffected()
			slog.Info("Watchdog purge completed", "rows_deleted", rows)
		}
	}()

	slog.Info("Watchdog started", "interval", watchdogInterval)
}
