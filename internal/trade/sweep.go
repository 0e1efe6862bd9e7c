package trade

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/logger"
)

// SweepOverdue enqueues immediate settlement for every PENDING position past
// its expiry. Settlement stays idempotent, so re-enqueueing a position whose
// scheduled task is still in flight is harmless. Returns how many were
// enqueued.
func SweepOverdue(ctx context.Context) (int, error) {
	rows, err := db.Conn.Query(ctx, `
		SELECT id::text FROM trades
		WHERE result = 'PENDING' AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if err := EnqueueResolve(id, 0); err != nil {
			logger.Log.Warn("could not enqueue overdue trade",
				zap.String("trade_id", id), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// StartSweeper runs SweepOverdue on a fixed interval in the background. It
// backstops the scheduled settlement tasks across restarts and queue
// hiccups.
func StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			n, err := SweepOverdue(context.Background())
			if err != nil {
				logger.Log.Error("trade sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Info("swept overdue trades", zap.Int("count", n))
			}
		}
	}()
}
