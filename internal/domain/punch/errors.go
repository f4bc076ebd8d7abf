package punch

import (
	"errors"
	"fmt"
)

// Punch pipeline errors. Every terminal rejection resolves to exactly one of
// these kinds; the first six get a specific user-facing message and are never
// retried automatically.
var (
	ErrWifiUnavailable     = errors.New("office wifi connection required")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrCaptureFailed       = errors.New("photo capture failed")
	ErrInvalidIdentifier   = errors.New("invalid organization or user identifier")
	ErrNetworkUnreachable  = errors.New("network unreachable")
	ErrTimeout             = errors.New("submission timed out")
	ErrServerRejected      = errors.New("server rejected submission")
	ErrUnknown             = errors.New("unknown punch failure")

	// ErrCaptureCancelled is the user closing the capture UI; it terminates
	// the attempt in Cancelled, not Rejected.
	ErrCaptureCancelled = errors.New("capture cancelled")

	// ErrAttemptInProgress guards the at-most-one-submission invariant.
	ErrAttemptInProgress = errors.New("a punch attempt is already in progress")
)

// ServerError carries a non-2xx backend response. It matches ErrServerRejected
// under errors.Is so callers classify without inspecting the type.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected submission [%d]: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServerRejected
}
