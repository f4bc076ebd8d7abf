package netinfo

import (
	"context"
	"log/slog"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// StateSource answers the platform network-state query: is the device online,
// and is the active connection WiFi.
type StateSource interface {
	Status(ctx context.Context) (connected bool, wifi bool)
}

// AddrSource yields the device-local IP address.
type AddrSource interface {
	LocalIP(ctx context.Context) (string, error)
}

// PublicIPSource yields the externally visible IP, typically via an echo
// service.
type PublicIPSource interface {
	PublicIP(ctx context.Context) (string, error)
}

// WifiSource yields SSID/BSSID from one platform information source. BSSID
// may legitimately be empty where the platform withholds it.
type WifiSource interface {
	Info(ctx context.Context) (ssid string, bssid string, err error)
}

// Notifier surfaces probe failures to the user when a resolve was asked to
// announce them.
type Notifier interface {
	Announce(message string)
}

// SlogNotifier is the default notice sink.
type SlogNotifier struct{}

func (SlogNotifier) Announce(message string) {
	slog.Warn("Network probe notice", "message", message)
}

// Probe resolves WifiInfo through an ordered fallback chain. Every source
// list is tried in order and the first usable value wins; the order is data,
// so tests enumerate it instead of tracing control flow.
type Probe struct {
	state     StateSource
	addr      AddrSource
	publicIPs []PublicIPSource // primary first, then exactly the fallbacks given
	wifis     []WifiSource     // primary connectivity info, then optional platform sources
	notifier  Notifier
}

func NewProbe(state StateSource, addr AddrSource, publicIPs []PublicIPSource, wifis []WifiSource, notifier Notifier) *Probe {
	if notifier == nil {
		notifier = SlogNotifier{}
	}
	return &Probe{
		state:     state,
		addr:      addr,
		publicIPs: publicIPs,
		wifis:     wifis,
		notifier:  notifier,
	}
}

// Resolve runs the fallback chain. It never returns an error: missing data is
// an invalid WifiInfo. A valid result always carries a non-empty SSID and
// local IP; BSSID falls back to the local IP and PublicIP may be empty.
func (p *Probe) Resolve(ctx context.Context, announce bool) punch.WifiInfo {
	connected, wifi := p.state.Status(ctx)
	if !connected || !wifi {
		if announce {
			p.notifier.Announce("Connect to the office WiFi network to punch attendance")
		}
		return punch.WifiInfo{}
	}

	localIP, err := p.addr.LocalIP(ctx)
	if err != nil || localIP == "" {
		slog.Debug("Network probe: no local IP", "error", err)
		return punch.WifiInfo{}
	}

	var publicIP string
	for _, src := range p.publicIPs {
		ip, err := src.PublicIP(ctx)
		if err != nil {
			slog.Debug("Network probe: public IP source failed", "error", err)
			continue
		}
		publicIP = ip
		break
	}

	var ssid, bssid string
	for _, src := range p.wifis {
		s, b, err := src.Info(ctx)
		if err != nil {
			slog.Debug("Network probe: wifi source failed", "error", err)
			continue
		}
		if s == "" {
			continue
		}
		ssid, bssid = s, b
		break
	}

	if ssid == "" {
		if announce {
			p.notifier.Announce("Could not read the WiFi network name; reconnect to the office WiFi")
		}
		return punch.WifiInfo{}
	}

	if bssid == "" {
		bssid = localIP
	}

	return punch.WifiInfo{
		SSID:     ssid,
		BSSID:    bssid,
		LocalIP:  localIP,
		PublicIP: publicIP,
		IsValid:  true,
	}
}

// Online implements the cheap pre-submission connectivity check: device state
// only, no SSID or IP resolution.
func (p *Probe) Online(ctx context.Context) bool {
	connected, _ := p.state.Status(ctx)
	return connected
}
