package core

import (
	"context"
	"errors"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemStatus is the /healthz payload.
type SystemStatus struct {
	Status        string `json:"status"`   // ok|degraded
	Database      string `json:"database"` // ok|error
	Cache         string `json:"cache"`    // ok|error|disabled
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// CollectSystemStatus pings the database and cache. The process is degraded only
// when the database is unreachable; the cache is optional.
func CollectSystemStatus(ctx context.Context, db Pinger, cache StatsCache, startedAt time.Time) SystemStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := SystemStatus{Status: "ok", Database: "ok", Cache: "ok"}
	if db == nil || db.Ping(ctx) != nil {
		st.Database = "error"
		st.Status = "degraded"
	}
	if cache != nil {
		if err := cache.Ping(ctx); err != nil {
			if errors.Is(err, errCacheDisabled) {
				st.Cache = "disabled"
			} else {
				st.Cache = "error"
			}
		}
	}
	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}
	return st
}
