package punch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

const (
	testOrgID  = "123e4567-e89b-12d3-a456-426614174000"
	testUserID = "223e4567-e89b-12d3-a456-426614174000"
)

type fakeNetwork struct {
	info  punch.WifiInfo
	calls int
}

func (f *fakeNetwork) Resolve(ctx context.Context, announce bool) punch.WifiInfo {
	f.calls++
	return f.info
}

type fakeLocation struct {
	info  punch.LocationInfo
	err   error
	calls int
}

func (f *fakeLocation) Resolve(ctx context.Context) (punch.LocationInfo, error) {
	f.calls++
	return f.info, f.err
}

func (f *fakeLocation) ResolveWithAddress(ctx context.Context) (punch.LocationInfo, error) {
	f.calls++
	return f.info, f.err
}

type fakeCamera struct {
	path  string
	err   error
	calls int
}

func (f *fakeCamera) Capture(ctx context.Context) (string, error) {
	f.calls++
	return f.path, f.err
}

type fakeConnectivity struct {
	online bool
}

func (f *fakeConnectivity) Online(ctx context.Context) bool { return f.online }

type fakeClient struct {
	outcome     punch.Outcome
	calls       int
	submissions []punch.Submission
}

func (f *fakeClient) Submit(ctx context.Context, sub punch.Submission) punch.Outcome {
	f.calls++
	f.submissions = append(f.submissions, sub)
	return f.outcome
}

func (f *fakeClient) TodayLogs(ctx context.Context, orgID, userID string) (punch.State, error) {
	return punch.State{}, nil
}

type fixture struct {
	network      *fakeNetwork
	location     *fakeLocation
	camera       *fakeCamera
	connectivity *fakeConnectivity
	client       *fakeClient
	state        *StateStore
}

func validWifi() punch.WifiInfo {
	return punch.WifiInfo{
		SSID:    "Office-5G",
		BSSID:   "aa:bb:cc:dd:ee:ff",
		LocalIP: "192.168.1.10",
		IsValid: true,
	}
}

func validLocation() punch.LocationInfo {
	return punch.LocationInfo{
		Latitude:  19.07,
		Longitude: 72.87,
		Address:   "1 Office Park",
		IsValid:   true,
	}
}

func newFixture() *fixture {
	return &fixture{
		network:      &fakeNetwork{info: validWifi()},
		location:     &fakeLocation{info: validLocation()},
		camera:       &fakeCamera{path: "/tmp/punch.jpg"},
		connectivity: &fakeConnectivity{online: true},
		client:       &fakeClient{outcome: punch.Outcome{Kind: punch.OutcomeSuccess, Status: "success"}},
		state:        NewStateStore(),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(testOrgID, testUserID, punch.SourceMobile, "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       f.camera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
	})
}

// Full success path flips state and sets the punch-in time.
func TestOrchestrator_Run_Success(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, result.Phase)

	state := f.state.Snapshot()
	assert.True(t, state.IsCheckedIn)
	require.NotNil(t, state.PunchInTime)
	assert.Equal(t, 1, f.client.calls)

	sub := f.client.submissions[0]
	assert.Equal(t, testOrgID, sub.OrganizationID)
	assert.Equal(t, "Office-5G", sub.WifiSSID)
	assert.Equal(t, 19.07, sub.Latitude)
	assert.True(t, sub.EnableFaceValidation)
	assert.True(t, sub.EnableWifiValidation)
	assert.True(t, sub.EnableGPSValidation)
}

// Invalid WiFi stops the attempt before capture.
func TestOrchestrator_Run_WifiGateBlocksCapture(t *testing.T) {
	f := newFixture()
	f.network.info = punch.WifiInfo{}
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, result.Phase)
	assert.ErrorIs(t, result.Err, punch.ErrWifiUnavailable)
	assert.Equal(t, 0, f.camera.calls, "capture must never open when the WiFi gate fails")
	assert.Equal(t, 0, f.client.calls)
	assert.False(t, f.state.Snapshot().IsCheckedIn)
}

// Permission denial is a distinct rejection and leaves state
// untouched.
func TestOrchestrator_Run_PermissionDenied(t *testing.T) {
	f := newFixture()
	f.location.err = punch.ErrPermissionDenied
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, result.Phase)
	assert.ErrorIs(t, result.Err, punch.ErrPermissionDenied)
	assert.Contains(t, result.Message, "permission")
	assert.Equal(t, 1, f.camera.calls)
	assert.Equal(t, 0, f.client.calls)
	assert.False(t, f.state.Snapshot().IsCheckedIn)
}

func TestOrchestrator_Run_LocationUnavailableDistinctMessage(t *testing.T) {
	f := newFixture()
	f.location.err = punch.ErrLocationUnavailable
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, punch.ErrLocationUnavailable)
	assert.NotContains(t, result.Message, "permission",
		"fix failure and permission denial need different remediation text")
}

// An anomaly updates state like success, with a flagged message.
func TestOrchestrator_Run_AnomalyStillRecords(t *testing.T) {
	f := newFixture()
	f.client.outcome = punch.Outcome{
		Kind:    punch.OutcomeAnomaly,
		Status:  "anomaly",
		Reasons: []string{"off-site"},
	}
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseAnomalyAccepted, result.Phase)
	assert.Contains(t, result.Message, "off-site")
	assert.True(t, f.state.Snapshot().IsCheckedIn, "an anomaly is still a recorded punch")
}

// A malformed identifier never issues an HTTP call.
func TestOrchestrator_Run_InvalidIdentifierLocal(t *testing.T) {
	f := newFixture()
	o := NewOrchestrator("not-a-uuid", testUserID, punch.SourceMobile, "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       f.camera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
	})

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, result.Phase)
	assert.ErrorIs(t, result.Err, punch.ErrInvalidIdentifier)
	assert.Equal(t, 0, f.client.calls, "validation failures resolve locally, zero HTTP calls")
	assert.Equal(t, 0, f.camera.calls, "no capture is wasted on an unsendable submission")
}

func TestOrchestrator_Run_InvalidSourceLocal(t *testing.T) {
	f := newFixture()
	o := NewOrchestrator(testOrgID, testUserID, punch.Source("carrier-pigeon"), "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       f.camera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
	})

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, punch.ErrInvalidIdentifier)
	assert.Equal(t, 0, f.client.calls)
}

// Failing outcomes never toggle state, no matter how often they repeat.
func TestOrchestrator_Run_FailuresNeverToggleState(t *testing.T) {
	f := newFixture()
	f.client.outcome = punch.Outcome{
		Kind: punch.OutcomeFailure,
		Err:  punch.ErrTimeout,
	}
	o := f.orchestrator()

	for i := 0; i < 3; i++ {
		result, err := o.Run(context.Background(), punch.ModeCheckIn)
		require.NoError(t, err)
		assert.Equal(t, PhaseRejected, result.Phase)
	}

	state := f.state.Snapshot()
	assert.False(t, state.IsCheckedIn)
	assert.Nil(t, state.PunchInTime)
	assert.Nil(t, state.LastPunchTime)
}

// Unrecognized status strings do not flip state; the server's semantics there
// are undefined.
func TestOrchestrator_Run_OtherStatusLeavesStateUntouched(t *testing.T) {
	f := newFixture()
	f.client.outcome = punch.Outcome{Kind: punch.OutcomeOther, Status: "pending-review"}
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, result.Phase)
	assert.Contains(t, result.Message, "pending-review")
	assert.False(t, f.state.Snapshot().IsCheckedIn)
}

func TestOrchestrator_Run_CaptureCancelled(t *testing.T) {
	f := newFixture()
	f.camera.err = punch.ErrCaptureCancelled
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseCancelled, result.Phase)
	assert.Equal(t, 0, f.client.calls)
	assert.False(t, f.state.Snapshot().IsCheckedIn)
}

func TestOrchestrator_Run_CaptureFailed(t *testing.T) {
	f := newFixture()
	f.camera.path = ""
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, result.Phase)
	assert.ErrorIs(t, result.Err, punch.ErrCaptureFailed)
}

func TestOrchestrator_Run_ConnectivityDropBeforeCall(t *testing.T) {
	f := newFixture()
	f.connectivity.online = false
	o := f.orchestrator()

	result, err := o.Run(context.Background(), punch.ModeCheckIn)

	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, punch.ErrNetworkUnreachable)
	assert.Equal(t, 0, f.client.calls, "the call is skipped when connectivity dropped")
}

func TestOrchestrator_Run_CheckOutClearsCheckedIn(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	_, err := o.Run(context.Background(), punch.ModeCheckIn)
	require.NoError(t, err)
	require.True(t, f.state.Snapshot().IsCheckedIn)

	_, err = o.Run(context.Background(), punch.ModeCheckOut)
	require.NoError(t, err)
	assert.False(t, f.state.Snapshot().IsCheckedIn)
}

// A background revalidation between capture and submit must not alter the
// values already snapshotted into the attempt.
func TestOrchestrator_Run_RevalidationIsolation(t *testing.T) {
	f := newFixture()
	revalidator := NewRevalidator(f.network, f.location)

	// The camera step is the window where background refreshes interleave
	// with an active attempt; mutate the probe results from inside it.
	camera := &mutatingCamera{
		path: "/tmp/punch.jpg",
		during: func() {
			require.NoError(t, revalidator.Refresh(context.Background()))
		},
	}

	o := NewOrchestrator(testOrgID, testUserID, punch.SourceMobile, "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       camera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
	})

	result, err := o.Run(context.Background(), punch.ModeCheckIn)
	require.NoError(t, err)
	require.Equal(t, PhaseSucceeded, result.Phase)

	// The attempt snapshot is a value copy; rewriting the revalidator's cell
	// afterwards cannot reach it.
	f.network.info = punch.WifiInfo{SSID: "Cafe-Guest", LocalIP: "10.9.9.9", IsValid: true}
	require.NoError(t, revalidator.Refresh(context.Background()))

	assert.Equal(t, "Office-5G", result.Attempt.Wifi.SSID)
	assert.Equal(t, "Office-5G", f.client.submissions[0].WifiSSID)

	wifi, _, _ := revalidator.Snapshot()
	assert.Equal(t, "Cafe-Guest", wifi.SSID)
}

type mutatingCamera struct {
	path   string
	during func()
}

func (m *mutatingCamera) Capture(ctx context.Context) (string, error) {
	if m.during != nil {
		m.during()
	}
	return m.path, nil
}

func TestOrchestrator_Run_MutualExclusion(t *testing.T) {
	f := newFixture()
	release := make(chan struct{})
	entered := make(chan struct{})
	f.camera.path = "" // unused below

	blockingCamera := &blockedCamera{entered: entered, release: release}
	o := NewOrchestrator(testOrgID, testUserID, punch.SourceMobile, "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       blockingCamera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.Run(context.Background(), punch.ModeCheckIn)
	}()

	<-entered
	assert.True(t, o.Active())
	_, err := o.Run(context.Background(), punch.ModeCheckIn)
	assert.ErrorIs(t, err, punch.ErrAttemptInProgress)

	close(release)
	<-done
	assert.False(t, o.Active())
}

type blockedCamera struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockedCamera) Capture(ctx context.Context) (string, error) {
	close(b.entered)
	<-b.release
	return "/tmp/punch.jpg", nil
}

// The captured photo is removed once the attempt is terminal, whether it was
// submitted or the attempt failed after capture.
func TestOrchestrator_Run_RemovesCapturedPhoto(t *testing.T) {
	newPhoto := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "punch.jpg")
		require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))
		return path
	}

	t.Run("after success", func(t *testing.T) {
		f := newFixture()
		f.camera.path = newPhoto(t)

		_, err := f.orchestrator().Run(context.Background(), punch.ModeCheckIn)

		require.NoError(t, err)
		assert.NoFileExists(t, f.camera.path)
	})

	t.Run("after rejection past capture", func(t *testing.T) {
		f := newFixture()
		f.camera.path = newPhoto(t)
		f.location.err = punch.ErrLocationUnavailable

		result, err := f.orchestrator().Run(context.Background(), punch.ModeCheckIn)

		require.NoError(t, err)
		assert.Equal(t, PhaseRejected, result.Phase)
		assert.NoFileExists(t, f.camera.path)
	})
}

func TestOrchestrator_Run_AttemptTimestampFromClock(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	o := NewOrchestrator(testOrgID, testUserID, punch.SourceMobile, "test-device", Deps{
		Network:      f.network,
		Location:     f.location,
		Camera:       f.camera,
		Connectivity: f.connectivity,
		Client:       f.client,
		State:        f.state,
		Now:          func() time.Time { return fixed },
	})

	_, err := o.Run(context.Background(), punch.ModeCheckIn)
	require.NoError(t, err)

	assert.True(t, f.client.submissions[0].Timestamp.Equal(fixed))
	state := f.state.Snapshot()
	require.NotNil(t, state.PunchInTime)
	assert.True(t, state.PunchInTime.Equal(fixed))
}
