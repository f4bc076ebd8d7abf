package punch

import (
	"time"
)

// Mode distinguishes the two punch directions.
type Mode string

const (
	ModeCheckIn  Mode = "check-in"
	ModeCheckOut Mode = "check-out"
)

// Source identifies the channel a punch was submitted from.
type Source string

const (
	SourceMobile    Source = "mobile"
	SourceWeb       Source = "web"
	SourceBiometric Source = "biometric"
	SourceWifi      Source = "wifi"
	SourceManual    Source = "manual"
)

// ValidSources is the closed set the backend accepts for the source field.
var ValidSources = []string{
	string(SourceMobile),
	string(SourceWeb),
	string(SourceBiometric),
	string(SourceWifi),
	string(SourceManual),
}

// WifiInfo is one probe result. Produced fresh per probe, never persisted
// between probes. IsValid requires a non-empty SSID and local IP; BSSID falls
// back to the local IP when the hardware address is not obtainable, and
// PublicIP is best-effort.
type WifiInfo struct {
	SSID     string
	BSSID    string
	LocalIP  string
	PublicIP string
	IsValid  bool
}

// LocationInfo is one location probe result. IsValid requires a coordinate
// fix; Address is best-effort and degrades to a "lat, lon" string when
// reverse geocoding fails.
type LocationInfo struct {
	Latitude  float64
	Longitude float64
	Address   string
	IsValid   bool
}

// Attempt is the snapshot owned by a single orchestrator run. Wifi and
// Location are value copies taken at capture/verification time so a
// background revalidation can never mutate an in-flight submission.
type Attempt struct {
	ID                string
	Mode              Mode
	CapturedImagePath string
	Wifi              WifiInfo
	Location          LocationInfo
	DeviceInfo        string
	StartedAt         time.Time
}

// LogEntry is one attendance event from the backend's today-logs list.
type LogEntry struct {
	ID        string
	Type      Mode
	Timestamp time.Time
}

// State is the UI-observable attendance state. It is only ever derived from
// server-confirmed data: either a fetched log list or a confirmed punch
// outcome.
type State struct {
	IsCheckedIn   bool
	PunchInTime   *time.Time
	LastPunchTime *time.Time
	TodaysLogs    []LogEntry
}

// Derive computes State from a log list. Checked-in means a check-in exists
// for today's date and no check-out exists for today's date, evaluated
// against now's calendar day. Recomputed on every fetch, never cached across
// days.
func Derive(logs []LogEntry, punchIn, lastPunch *time.Time, now time.Time) State {
	var checkedIn, checkedOut bool
	for _, entry := range logs {
		if !sameDay(entry.Timestamp, now) {
			continue
		}
		switch entry.Type {
		case ModeCheckIn:
			checkedIn = true
		case ModeCheckOut:
			checkedOut = true
		}
	}

	return State{
		IsCheckedIn:   checkedIn && !checkedOut,
		PunchInTime:   punchIn,
		LastPunchTime: lastPunch,
		TodaysLogs:    logs,
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// JournalEntry is one terminal attempt persisted to the local journal. The
// journal is history only; it never feeds back into State.
type JournalEntry struct {
	AttemptID   string
	Mode        Mode
	Phase       string
	Status      string
	Reasons     []string
	Wifi        WifiInfo
	Location    LocationInfo
	DeviceInfo  string
	StartedAt   time.Time
	CompletedAt time.Time
}
