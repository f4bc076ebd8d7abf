package netinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeState struct {
	connected bool
	wifi      bool
}

func (f *fakeState) Status(ctx context.Context) (bool, bool) { return f.connected, f.wifi }

type fakeAddr struct {
	ip  string
	err error
}

func (f *fakeAddr) LocalIP(ctx context.Context) (string, error) { return f.ip, f.err }

type fakePublicIP struct {
	ip    string
	err   error
	calls int
}

func (f *fakePublicIP) PublicIP(ctx context.Context) (string, error) {
	f.calls++
	return f.ip, f.err
}

type fakeWifi struct {
	ssid  string
	bssid string
	err   error
	calls int
}

func (f *fakeWifi) Info(ctx context.Context) (string, string, error) {
	f.calls++
	return f.ssid, f.bssid, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Announce(message string) { f.messages = append(f.messages, message) }

func TestProbe_Resolve_NotOnWifi(t *testing.T) {
	addr := &fakeAddr{ip: "192.168.1.10"}
	wifi := &fakeWifi{ssid: "Office-5G"}
	notifier := &fakeNotifier{}
	probe := NewProbe(&fakeState{connected: true, wifi: false}, addr, nil, []WifiSource{wifi}, notifier)

	info := probe.Resolve(context.Background(), true)

	assert.False(t, info.IsValid)
	assert.Len(t, notifier.messages, 1)
	// The chain short-circuits: no downstream source is consulted.
	assert.Equal(t, 0, wifi.calls)
}

func TestProbe_Resolve_NoAnnounceWhenSilent(t *testing.T) {
	notifier := &fakeNotifier{}
	probe := NewProbe(&fakeState{}, &fakeAddr{}, nil, nil, notifier)

	info := probe.Resolve(context.Background(), false)

	assert.False(t, info.IsValid)
	assert.Empty(t, notifier.messages)
}

func TestProbe_Resolve_FullChain(t *testing.T) {
	state := &fakeState{connected: true, wifi: true}
	addr := &fakeAddr{ip: "192.168.1.10"}
	public := &fakePublicIP{ip: "203.0.113.7"}
	wifi := &fakeWifi{ssid: "Office-5G", bssid: "aa:bb:cc:dd:ee:ff"}
	probe := NewProbe(state, addr, []PublicIPSource{public}, []WifiSource{wifi}, nil)

	info := probe.Resolve(context.Background(), true)

	assert.True(t, info.IsValid)
	assert.Equal(t, "Office-5G", info.SSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", info.BSSID)
	assert.Equal(t, "192.168.1.10", info.LocalIP)
	assert.Equal(t, "203.0.113.7", info.PublicIP)
}

func TestProbe_Resolve_PublicIPFallbackOrder(t *testing.T) {
	primary := &fakePublicIP{err: errors.New("primary down")}
	fallback := &fakePublicIP{ip: "203.0.113.7"}
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{ip: "10.0.0.2"},
		[]PublicIPSource{primary, fallback},
		[]WifiSource{&fakeWifi{ssid: "Office-5G"}},
		nil,
	)

	info := probe.Resolve(context.Background(), false)

	assert.True(t, info.IsValid)
	assert.Equal(t, "203.0.113.7", info.PublicIP)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestProbe_Resolve_PublicIPBothFailNonFatal(t *testing.T) {
	primary := &fakePublicIP{err: errors.New("down")}
	fallback := &fakePublicIP{err: errors.New("also down")}
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{ip: "10.0.0.2"},
		[]PublicIPSource{primary, fallback},
		[]WifiSource{&fakeWifi{ssid: "Office-5G"}},
		nil,
	)

	info := probe.Resolve(context.Background(), false)

	assert.True(t, info.IsValid, "public IP is best-effort and must not invalidate the probe")
	assert.Empty(t, info.PublicIP)
}

func TestProbe_Resolve_SecondaryWifiSource(t *testing.T) {
	primary := &fakeWifi{err: errors.New("connectivity info unavailable")}
	secondary := &fakeWifi{ssid: "Office-5G"}
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{ip: "10.0.0.2"},
		nil,
		[]WifiSource{primary, secondary},
		nil,
	)

	info := probe.Resolve(context.Background(), false)

	assert.True(t, info.IsValid)
	assert.Equal(t, "Office-5G", info.SSID)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestProbe_Resolve_NoSSIDInvalid(t *testing.T) {
	notifier := &fakeNotifier{}
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{ip: "10.0.0.2"},
		nil,
		[]WifiSource{&fakeWifi{ssid: ""}},
		notifier,
	)

	info := probe.Resolve(context.Background(), true)

	assert.False(t, info.IsValid, "SSID is mandatory for a valid probe")
	assert.Len(t, notifier.messages, 1)
}

func TestProbe_Resolve_BSSIDFallsBackToLocalIP(t *testing.T) {
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{ip: "10.0.0.2"},
		nil,
		[]WifiSource{&fakeWifi{ssid: "Office-5G", bssid: ""}},
		nil,
	)

	info := probe.Resolve(context.Background(), false)

	assert.True(t, info.IsValid)
	assert.Equal(t, "10.0.0.2", info.BSSID)
}

func TestProbe_Resolve_NoLocalIPInvalid(t *testing.T) {
	probe := NewProbe(
		&fakeState{connected: true, wifi: true},
		&fakeAddr{err: errors.New("no interfaces")},
		nil,
		[]WifiSource{&fakeWifi{ssid: "Office-5G"}},
		nil,
	)

	info := probe.Resolve(context.Background(), false)

	assert.False(t, info.IsValid)
}

func TestProbe_Online(t *testing.T) {
	state := &fakeState{connected: true, wifi: false}
	probe := NewProbe(state, &fakeAddr{}, nil, nil, nil)

	assert.True(t, probe.Online(context.Background()))

	state.connected = false
	assert.False(t, probe.Online(context.Background()))
}
