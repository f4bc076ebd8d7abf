package punch

import (
	"context"
	"time"
)

// NetworkProbe resolves current WiFi connectivity. It never returns an error;
// absence of usable data is expressed through WifiInfo.IsValid. When announce
// is true, validity failures may surface a user-visible notice ("connect to
// office WiFi") through the probe's notifier.
type NetworkProbe interface {
	Resolve(ctx context.Context, announce bool) WifiInfo
}

// LocationProbe resolves current device coordinates. A nil error implies
// IsValid. On failure the error distinguishes permission denial
// (ErrPermissionDenied) from a missing fix (ErrLocationUnavailable), since
// the caller renders different remediation text for each.
type LocationProbe interface {
	Resolve(ctx context.Context) (LocationInfo, error)
	ResolveWithAddress(ctx context.Context) (LocationInfo, error)
}

// Camera opens the platform capture UI and returns the captured image path.
// ErrCaptureCancelled means the user closed the capture UI.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// Connectivity is the cheap device-online check run immediately before the
// network call, distinct from a full NetworkProbe resolve.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// LogClient talks to the attendance backend.
type LogClient interface {
	// Submit sends one multipart punch and classifies the response. Transport
	// and server failures are folded into the returned Outcome, never thrown.
	Submit(ctx context.Context, sub Submission) Outcome

	// TodayLogs fetches today's attendance events and derives State from them.
	TodayLogs(ctx context.Context, organizationID, userID string) (State, error)
}

// Journal records terminal attempts for local history and export.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
	List(ctx context.Context, from, to time.Time) ([]JournalEntry, error)
}
