package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/validator"
)

// Phase is one orchestrator state. The four last phases are terminal; a new
// attempt always starts fresh from Idle.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseWifiGating        Phase = "wifi_gating"
	PhaseCapturing         Phase = "capturing"
	PhaseReverifying       Phase = "reverifying"
	PhaseLocationResolving Phase = "location_resolving"
	PhaseSubmitting        Phase = "submitting"
	PhaseSucceeded         Phase = "succeeded"
	PhaseAnomalyAccepted   Phase = "anomaly_accepted"
	PhaseRejected          Phase = "rejected"
	PhaseCancelled         Phase = "cancelled"
)

// Result is the terminal outcome of one attempt.
type Result struct {
	Phase   Phase
	Mode    punch.Mode
	Message string
	Err     error         // rejection cause, matches a punch sentinel kind
	Outcome punch.Outcome // populated when the attempt reached Submitting
	Attempt punch.Attempt
}

// Orchestrator drives a single check-in/check-out attempt end to end. All
// collaborators are injected; the orchestrator reaches into no ambient state.
type Orchestrator struct {
	organizationID string
	userID         string
	source         punch.Source
	deviceInfo     string

	network      punch.NetworkProbe
	location     punch.LocationProbe
	camera       punch.Camera
	connectivity punch.Connectivity
	client       punch.LogClient
	state        *StateStore
	journal      punch.Journal // optional
	now          func() time.Time

	active atomic.Bool
}

type Deps struct {
	Network      punch.NetworkProbe
	Location     punch.LocationProbe
	Camera       punch.Camera
	Connectivity punch.Connectivity
	Client       punch.LogClient
	State        *StateStore
	Journal      punch.Journal
	Now          func() time.Time
}

func NewOrchestrator(organizationID, userID string, source punch.Source, deviceInfo string, deps Deps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		organizationID: organizationID,
		userID:         userID,
		source:         source,
		deviceInfo:     deviceInfo,
		network:        deps.Network,
		location:       deps.Location,
		camera:         deps.Camera,
		connectivity:   deps.Connectivity,
		client:         deps.Client,
		state:          deps.State,
		journal:        deps.Journal,
		now:            now,
	}
}

// Active reports whether an attempt is currently in flight.
func (o *Orchestrator) Active() bool {
	return o.active.Load()
}

// Run executes one attempt. At most one attempt runs at a time: the backend
// has no idempotency key, so a duplicate submission would double-log
// attendance. There are no automatic retries anywhere; every terminal state
// returns to the caller, and a retry is a fresh Run from Idle.
func (o *Orchestrator) Run(ctx context.Context, mode punch.Mode) (Result, error) {
	if !o.active.CompareAndSwap(false, true) {
		return Result{}, punch.ErrAttemptInProgress
	}
	defer o.active.Store(false)

	result := o.run(ctx, mode)
	o.record(ctx, result)
	o.cleanup(result)

	slog.Info("Punch attempt finished",
		"mode", mode,
		"phase", result.Phase,
		"message", result.Message,
	)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, mode punch.Mode) Result {
	attempt := punch.Attempt{
		ID:         uuid.NewString(),
		Mode:       mode,
		DeviceInfo: o.deviceInfo,
		StartedAt:  o.now(),
	}

	// Identifier validation is local and immediate: a malformed id can never
	// be fixed by the rest of the pipeline, so no capture or network call is
	// spent on it.
	if !validator.IsValidUUID(o.organizationID) || !validator.IsValidUUID(o.userID) ||
		!validator.IsInSlice(string(o.source), punch.ValidSources) {
		return rejected(attempt, punch.ErrInvalidIdentifier)
	}

	// WifiGating: no capture without network present, to avoid wasting a
	// photo that cannot be submitted.
	wifi := o.network.Resolve(ctx, true)
	if !wifi.IsValid {
		return rejected(attempt, punch.ErrWifiUnavailable)
	}

	// Capturing.
	imagePath, err := o.camera.Capture(ctx)
	if err != nil {
		if errors.Is(err, punch.ErrCaptureCancelled) {
			return Result{
				Phase:   PhaseCancelled,
				Mode:    mode,
				Message: "Punch cancelled",
				Err:     err,
				Attempt: attempt,
			}
		}
		return rejected(attempt, fmt.Errorf("%w: %v", punch.ErrCaptureFailed, err))
	}
	if imagePath == "" {
		return rejected(attempt, punch.ErrCaptureFailed)
	}
	attempt.CapturedImagePath = imagePath

	// Reverifying: the network may have dropped during capture. The fresh
	// value is snapshotted into the attempt; background revalidation cannot
	// touch it from here on.
	wifi = o.network.Resolve(ctx, false)
	if !wifi.IsValid {
		return rejected(attempt, punch.ErrWifiUnavailable)
	}
	attempt.Wifi = wifi

	// LocationResolving.
	location, err := o.location.ResolveWithAddress(ctx)
	if err != nil {
		switch {
		case errors.Is(err, punch.ErrPermissionDenied):
			return rejected(attempt, err)
		case errors.Is(err, punch.ErrLocationUnavailable):
			return rejected(attempt, err)
		default:
			return rejected(attempt, fmt.Errorf("%w: %v", punch.ErrLocationUnavailable, err))
		}
	}
	attempt.Location = location

	submission := punch.Submission{
		OrganizationID:       o.organizationID,
		UserID:               o.userID,
		Source:               o.source,
		Timestamp:            o.now(),
		Latitude:             location.Latitude,
		Longitude:            location.Longitude,
		LocationAddress:      location.Address,
		WifiSSID:             wifi.SSID,
		WifiBSSID:            wifi.BSSID,
		DeviceInfo:           o.deviceInfo,
		EnableFaceValidation: true,
		EnableWifiValidation: true,
		EnableGPSValidation:  true,
		Mode:                 mode,
		PhotoPath:            imagePath,
	}
	if err := submission.Validate(); err != nil {
		return rejected(attempt, fmt.Errorf("%w: %v", punch.ErrInvalidIdentifier, err))
	}

	// Submitting: one cheap connectivity check right before the call; once
	// the call is issued the attempt runs to a terminal state with no
	// mid-flight abort, so server ledger and local state cannot diverge.
	if !o.connectivity.Online(ctx) {
		return rejected(attempt, punch.ErrNetworkUnreachable)
	}

	outcome := o.client.Submit(ctx, submission)
	return o.classify(attempt, submission, outcome)
}

func (o *Orchestrator) classify(attempt punch.Attempt, submission punch.Submission, outcome punch.Outcome) Result {
	result := Result{
		Mode:    attempt.Mode,
		Outcome: outcome,
		Attempt: attempt,
	}

	switch outcome.Kind {
	case punch.OutcomeSuccess:
		o.state.ApplyPunch(attempt.Mode, submission.Timestamp)
		result.Phase = PhaseSucceeded
		if attempt.Mode == punch.ModeCheckIn {
			result.Message = "Checked in"
		} else {
			result.Message = "Checked out"
		}

	case punch.OutcomeAnomaly:
		// An anomaly is still a recorded attendance event, just flagged.
		o.state.ApplyPunch(attempt.Mode, submission.Timestamp)
		result.Phase = PhaseAnomalyAccepted
		result.Message = "Attendance recorded with anomaly: " + outcome.AnomalyMessage()

	case punch.OutcomeOther:
		// Unrecognized backend status: the server's semantics are undefined,
		// so local state stays untouched.
		result.Phase = PhaseRejected
		result.Message = "Attendance status unclear (" + outcome.Status + "); refresh to see the recorded state"

	default:
		result.Phase = PhaseRejected
		result.Err = outcome.Err
		result.Message = UserMessage(outcome.Err)
	}

	return result
}

func (o *Orchestrator) record(ctx context.Context, result Result) {
	if o.journal == nil {
		return
	}

	entry := punch.JournalEntry{
		AttemptID:   result.Attempt.ID,
		Mode:        result.Attempt.Mode,
		Phase:       string(result.Phase),
		Status:      result.Outcome.Status,
		Reasons:     result.Outcome.Reasons,
		Wifi:        result.Attempt.Wifi,
		Location:    result.Attempt.Location,
		DeviceInfo:  result.Attempt.DeviceInfo,
		StartedAt:   result.Attempt.StartedAt,
		CompletedAt: o.now(),
	}
	if err := o.journal.Record(ctx, entry); err != nil {
		slog.Warn("Failed to journal punch attempt", "attempt_id", entry.AttemptID, "error", err)
	}
}

// cleanup removes the captured photo; it has no use once the attempt is
// terminal, and the files would otherwise accumulate.
func (o *Orchestrator) cleanup(result Result) {
	if result.Attempt.CapturedImagePath == "" {
		return
	}
	if err := os.Remove(result.Attempt.CapturedImagePath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove captured photo", "path", result.Attempt.CapturedImagePath, "error", err)
	}
}

func rejected(attempt punch.Attempt, err error) Result {
	return Result{
		Phase:   PhaseRejected,
		Mode:    attempt.Mode,
		Message: UserMessage(err),
		Err:     err,
		Attempt: attempt,
	}
}

// UserMessage maps an error kind to the user-facing text. The first six kinds
// get specific remediation text; only server and unknown failures surface a
// raw message, and then behind a normalized prefix.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, punch.ErrWifiUnavailable):
		return "Connect to the office WiFi network to punch attendance"
	case errors.Is(err, punch.ErrPermissionDenied):
		return "Enable location permission to punch attendance"
	case errors.Is(err, punch.ErrLocationUnavailable):
		return "Could not determine your location; move to an open area and retry"
	case errors.Is(err, punch.ErrCaptureFailed):
		return "Photo capture failed; retry your punch"
	case errors.Is(err, punch.ErrInvalidIdentifier):
		return "Your account identifiers are invalid; sign in again"
	case errors.Is(err, punch.ErrNetworkUnreachable):
		return "No network connection; check connectivity and retry"
	case errors.Is(err, punch.ErrTimeout):
		return "Submission timed out; check connectivity and retry"
	case errors.Is(err, punch.ErrServerRejected):
		return "Punch failed: " + err.Error()
	case err != nil:
		return "Punch failed: " + err.Error()
	default:
		return ""
	}
}
