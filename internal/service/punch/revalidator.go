package punch

import (
	"context"
	"sync"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// Revalidator silently refreshes probe results in the background so the
// check-in/check-out affordances stay current. It keeps its own snapshot
// cell; active attempts read probes directly and copy results into their own
// Attempt, so a background refresh can never alter an in-flight submission.
type Revalidator struct {
	network  punch.NetworkProbe
	location punch.LocationProbe

	mu           sync.RWMutex
	lastWifi     punch.WifiInfo
	lastLocation punch.LocationInfo
	lastRun      time.Time
}

func NewRevalidator(network punch.NetworkProbe, location punch.LocationProbe) *Revalidator {
	return &Revalidator{
		network:  network,
		location: location,
	}
}

// Refresh runs both probes without announcing failures. Probe errors are
// absorbed into invalid snapshots; the job itself never fails.
func (r *Revalidator) Refresh(ctx context.Context) error {
	wifi := r.network.Resolve(ctx, false)

	location, err := r.location.Resolve(ctx)
	if err != nil {
		location = punch.LocationInfo{}
	}

	r.mu.Lock()
	r.lastWifi = wifi
	r.lastLocation = location
	r.lastRun = time.Now()
	r.mu.Unlock()
	return nil
}

// Snapshot returns the latest probe results and when they were taken.
func (r *Revalidator) Snapshot() (punch.WifiInfo, punch.LocationInfo, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastWifi, r.lastLocation, r.lastRun
}
