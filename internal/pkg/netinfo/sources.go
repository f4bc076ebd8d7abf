package netinfo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// InterfaceSource reads network state and the local IP from the kernel's
// interface table. An interface is considered WiFi by name prefix, which is
// the best signal available without platform bindings.
type InterfaceSource struct {
	// WifiPrefixes overrides the interface-name prefixes treated as WiFi.
	WifiPrefixes []string
}

var defaultWifiPrefixes = []string{"wlan", "wlp", "wlo", "wifi", "en0", "ath"}

func (s *InterfaceSource) prefixes() []string {
	if len(s.WifiPrefixes) > 0 {
		return s.WifiPrefixes
	}
	return defaultWifiPrefixes
}

func (s *InterfaceSource) Status(ctx context.Context) (bool, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false, false
	}

	var connected, wifi bool
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		connected = true
		for _, prefix := range s.prefixes() {
			if strings.HasPrefix(iface.Name, prefix) {
				wifi = true
			}
		}
	}
	return connected, wifi
}

func (s *InterfaceSource) LocalIP(ctx context.Context) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String(), nil
			}
		}
	}
	return "", fmt.Errorf("no usable IPv4 address found")
}

// EchoSource fetches the public IP from a plain-text echo endpoint.
type EchoSource struct {
	URL    string
	Client *http.Client
}

func NewEchoSource(url string, timeout time.Duration) *EchoSource {
	return &EchoSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *EchoSource) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("echo service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("echo service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}

	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("echo service returned %q, not an IP", ip)
	}
	return ip, nil
}

// ExecWifiSource shells out to wireless tooling for SSID/BSSID. This is the
// Linux secondary source; on platforms without iwgetid it simply errors and
// the chain moves on.
type ExecWifiSource struct {
	Interface string
}

func (s *ExecWifiSource) Info(ctx context.Context) (string, string, error) {
	ssid, err := s.run(ctx, "-r")
	if err != nil {
		return "", "", err
	}

	// AP address is optional; the probe falls back to the local IP.
	bssid, err := s.run(ctx, "-ar")
	if err != nil {
		bssid = ""
	}
	return ssid, bssid, nil
}

func (s *ExecWifiSource) run(ctx context.Context, flag string) (string, error) {
	args := []string{}
	if s.Interface != "" {
		args = append(args, s.Interface)
	}
	args = append(args, flag)

	out, err := exec.CommandContext(ctx, "iwgetid", args...).Output()
	if err != nil {
		return "", fmt.Errorf("iwgetid %s failed: %w", flag, err)
	}
	return strings.TrimSpace(string(out)), nil
}
