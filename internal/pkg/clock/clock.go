package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TimeSource is the server current-time endpoint.
type TimeSource interface {
	ServerTime(ctx context.Context) (time.Time, error)
}

// Clock is a display clock seeded from server time and ticking locally
// against the monotonic clock. The device clock may be wrong, which is the
// reason server sync exists; once synced the clock never falls back to
// device-local time, and a failed resync just keeps ticking from the last
// known value.
type Clock struct {
	mu         sync.RWMutex
	base       time.Time // server time at last successful sync
	baseAt     time.Time // local monotonic reading at last successful sync
	synced     bool
	lastSyncAt time.Time
}

func New() *Clock {
	return &Clock{}
}

// Now returns the current synced time. Before the first successful sync it
// reports device-local time, which is all that is available.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.synced {
		return time.Now()
	}
	return c.base.Add(time.Since(c.baseAt))
}

// Synced reports whether at least one server sync has succeeded.
func (c *Clock) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

// LastSyncAt returns the local time of the last successful sync.
func (c *Clock) LastSyncAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSyncAt
}

// Resync fetches server time and rebases the clock. On failure the previous
// base keeps ticking.
func (c *Clock) Resync(ctx context.Context, source TimeSource) error {
	serverNow, err := source.ServerTime(ctx)
	if err != nil {
		slog.Warn("Clock resync failed, keeping last known time", "error", err)
		return fmt.Errorf("clock resync: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = serverNow
	c.baseAt = time.Now()
	c.synced = true
	c.lastSyncAt = c.baseAt
	return nil
}
