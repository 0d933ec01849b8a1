package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// StartSessionCleaner removes, every interval, the sessions that have not
// written anything for longer than ttl.
func StartSessionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	ttl time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := cleanIdleSessions(ctx, db, time.Now().Add(-ttl))
				if err != nil {
					log.Error("failed to clean idle sessions", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					log.Info("cleaned idle sessions", zap.Int("removed", len(removed)))
				}
			}
		}
	}()
}

func cleanIdleSessions(ctx context.Context, db *sql.DB, cutoff time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT namespace FROM kv
		 GROUP BY namespace
		HAVING MAX(updated_at) < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find idle sessions: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		stale = append(stale, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find idle sessions: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := db.ExecContext(ctx, `
		DELETE FROM kv WHERE namespace = ANY($1)
	`, pq.Array(stale)); err != nil {
		return nil, fmt.Errorf("delete idle sessions: %w", err)
	}
	return stale, nil
}
