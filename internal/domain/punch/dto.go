package punch

import (
	"strings"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/pkg/validator"
)

// Submission is the assembled multipart payload for one punch. Built by the
// orchestrator from an Attempt; validated locally before any network traffic
// so a malformed identifier never produces an opaque server-side 400.
type Submission struct {
	OrganizationID       string
	UserID               string
	Source               Source
	Timestamp            time.Time
	Latitude             float64
	Longitude            float64
	LocationAddress      string
	WifiSSID             string
	WifiBSSID            string
	DeviceInfo           string
	EnableFaceValidation bool
	EnableWifiValidation bool
	EnableGPSValidation  bool
	Mode                 Mode
	PhotoPath            string
}

func (s *Submission) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(s.OrganizationID) {
		errs = append(errs, validator.ValidationError{
			Field:   "organization_id",
			Message: "organization_id must be a valid UUID",
		})
	}

	if !validator.IsValidUUID(s.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}

	if !validator.IsInSlice(string(s.Source), ValidSources) {
		errs = append(errs, validator.ValidationError{
			Field:   "source",
			Message: "source must be one of: " + strings.Join(ValidSources, ", "),
		})
	}

	if s.Latitude < -90 || s.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if s.Longitude < -180 || s.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if validator.IsEmpty(s.PhotoPath) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "attendance proof photo is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// OutcomeKind tags a classified submission response.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeAnomaly OutcomeKind = "anomaly"
	OutcomeOther   OutcomeKind = "other"
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is the classified result of one submission. Success and Anomaly
// are both recorded attendance events; Other is an unrecognized backend
// status and leaves local state untouched; Failure carries the error kind.
type Outcome struct {
	Kind    OutcomeKind
	Status  string   // raw backend status string
	Reasons []string // anomaly reasons, may be empty
	Err     error    // failure cause, matches one of the sentinel kinds
}

// AnomalyMessage renders the user-facing anomaly text. An empty reason list
// renders as "unknown reason".
func (o Outcome) AnomalyMessage() string {
	if len(o.Reasons) == 0 {
		return "unknown reason"
	}
	return strings.Join(o.Reasons, ", ")
}
