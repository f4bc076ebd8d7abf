package http

import (
	"net/http"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"github.com/workpulse-hr/punch-agent-go/internal/handler/http/response"
	"github.com/workpulse-hr/punch-agent-go/internal/pkg/validator"
	punchService "github.com/workpulse-hr/punch-agent-go/internal/service/punch"
	"github.com/workpulse-hr/punch-agent-go/internal/service/report"
)

// Clock is the display clock surface the status endpoint reads.
type Clock interface {
	Now() time.Time
	Synced() bool
}

type PunchHandler struct {
	orchestrator *punchService.Orchestrator
	state        *punchService.StateStore
	revalidator  *punchService.Revalidator
	clock        Clock
	client       punch.LogClient
	journal      punch.Journal

	organizationID string
	userID         string
}

func NewPunchHandler(
	orchestrator *punchService.Orchestrator,
	state *punchService.StateStore,
	revalidator *punchService.Revalidator,
	clock Clock,
	client punch.LogClient,
	journal punch.Journal,
	organizationID, userID string,
) *PunchHandler {
	return &PunchHandler{
		orchestrator:   orchestrator,
		state:          state,
		revalidator:    revalidator,
		clock:          clock,
		client:         client,
		journal:        journal,
		organizationID: organizationID,
		userID:         userID,
	}
}

type probeSnapshotPayload struct {
	WifiValid     bool   `json:"wifi_valid"`
	WifiSSID      string `json:"wifi_ssid,omitempty"`
	LocationValid bool   `json:"location_valid"`
	Address       string `json:"address,omitempty"`
	CheckedAt     string `json:"checked_at,omitempty"`
}

type statusPayload struct {
	IsCheckedIn   bool                 `json:"is_checked_in"`
	PunchInTime   *string              `json:"punch_in_time,omitempty"`
	LastPunchTime *string              `json:"last_punch_time,omitempty"`
	CanCheckIn    bool                 `json:"can_check_in"`
	CanCheckOut   bool                 `json:"can_check_out"`
	IsSubmitting  bool                 `json:"is_submitting"`
	Probes        probeSnapshotPayload `json:"probes"`
	ClockNow      string               `json:"clock_now"`
	ClockSynced   bool                 `json:"clock_synced"`
}

type punchResultPayload struct {
	Phase   string   `json:"phase"`
	Message string   `json:"message"`
	Status  string   `json:"status,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

// Status reports the attendance state plus the latest background probe
// snapshots; the presentation shell polls this for its affordances.
func (h *PunchHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := h.state.Snapshot()
	wifi, location, checkedAt := h.revalidator.Snapshot()
	submitting := h.orchestrator.Active()

	probesOK := wifi.IsValid && location.IsValid
	payload := statusPayload{
		IsCheckedIn:   state.IsCheckedIn,
		PunchInTime:   timePtrToString(state.PunchInTime),
		LastPunchTime: timePtrToString(state.LastPunchTime),
		CanCheckIn:    !state.IsCheckedIn && probesOK && !submitting,
		CanCheckOut:   state.IsCheckedIn && probesOK && !submitting,
		IsSubmitting:  submitting,
		Probes: probeSnapshotPayload{
			WifiValid:     wifi.IsValid,
			WifiSSID:      wifi.SSID,
			LocationValid: location.IsValid,
			Address:       location.Address,
		},
		ClockNow:    h.clock.Now().Format(time.RFC3339),
		ClockSynced: h.clock.Synced(),
	}
	if !checkedAt.IsZero() {
		payload.Probes.CheckedAt = checkedAt.Format(time.RFC3339)
	}

	response.Success(w, payload)
}

func (h *PunchHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, punch.ModeCheckIn)
}

func (h *PunchHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, punch.ModeCheckOut)
}

func (h *PunchHandler) punch(w http.ResponseWriter, r *http.Request, mode punch.Mode) {
	result, err := h.orchestrator.Run(r.Context(), mode)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	switch result.Phase {
	case punchService.PhaseSucceeded, punchService.PhaseAnomalyAccepted:
		response.SuccessWithMessage(w, result.Message, punchResultPayload{
			Phase:   string(result.Phase),
			Message: result.Message,
			Status:  result.Outcome.Status,
			Reasons: result.Outcome.Reasons,
		})
	case punchService.PhaseCancelled:
		response.UnprocessableEntity(w, "PUNCH_CANCELLED", result.Message)
	default:
		response.UnprocessableEntity(w, "PUNCH_REJECTED", result.Message)
	}
}

// Refresh re-derives attendance state from the backend's today-logs.
func (h *PunchHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.client.TodayLogs(r.Context(), h.organizationID, h.userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.state.Replace(state)
	response.Success(w, statusPayload{
		IsCheckedIn:   state.IsCheckedIn,
		PunchInTime:   timePtrToString(state.PunchInTime),
		LastPunchTime: timePtrToString(state.LastPunchTime),
	})
}

// Export streams the punch journal as an .xlsx register. Optional from/to
// query parameters bound the range (YYYY-MM-DD).
func (h *PunchHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		response.BadRequest(w, "Journal is not enabled", nil)
		return
	}

	var from, to time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		parsed, ok := validator.IsValidDate(s)
		if !ok {
			response.BadRequest(w, "from must be in YYYY-MM-DD format", nil)
			return
		}
		from = parsed
	}
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, ok := validator.IsValidDate(s)
		if !ok {
			response.BadRequest(w, "to must be in YYYY-MM-DD format", nil)
			return
		}
		// Inclusive end date.
		to = parsed.AddDate(0, 0, 1)
	}

	entries, err := h.journal.List(r.Context(), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="punch-register.xlsx"`)
	if err := report.WriteXLSX(entries, w); err != nil {
		response.InternalServerError(w, "Failed to render export")
	}
}
