package punch

import (
	"sync"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// StateStore holds the process-wide attendance state. It is mutated only
// after a confirmed Success/Anomaly outcome or an explicit server refresh;
// the visible check-in affordance never shows a state the server has not
// confirmed.
type StateStore struct {
	mu    sync.RWMutex
	state punch.State
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// Snapshot returns a copy; the logs slice is cloned so readers never share
// backing storage with a later refresh.
func (s *StateStore) Snapshot() punch.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	if s.state.TodaysLogs != nil {
		out.TodaysLogs = make([]punch.LogEntry, len(s.state.TodaysLogs))
		copy(out.TodaysLogs, s.state.TodaysLogs)
	}
	return out
}

// Replace installs a freshly derived server state.
func (s *StateStore) Replace(state punch.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// ApplyPunch records a confirmed punch event. Called only for Success and
// Anomaly outcomes; an anomaly is still a recorded attendance event.
func (s *StateStore) ApplyPunch(mode punch.Mode, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := at
	s.state.LastPunchTime = &ts

	switch mode {
	case punch.ModeCheckIn:
		s.state.IsCheckedIn = true
		s.state.PunchInTime = &ts
	case punch.ModeCheckOut:
		s.state.IsCheckedIn = false
	}

	s.state.TodaysLogs = append(s.state.TodaysLogs, punch.LogEntry{
		Type:      mode,
		Timestamp: ts,
	})
}
