package response

import (
	"errors"
	"net/http"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, punch.ErrAttemptInProgress):
		Conflict(w, "A punch attempt is already in progress")
	case errors.Is(err, punch.ErrInvalidIdentifier):
		BadRequest(w, "Invalid organization or user identifier", nil)
	case errors.Is(err, punch.ErrTimeout),
		errors.Is(err, punch.ErrNetworkUnreachable),
		errors.Is(err, punch.ErrServerRejected):
		BadGateway(w, "Attendance backend unavailable")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
