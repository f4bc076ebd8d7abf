package geoloc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// Coordinates is one position fix.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// FixSource is the platform location collaborator. RequestPermission returns
// punch.ErrPermissionDenied when the user refused foreground location; Fix
// returns punch.ErrLocationUnavailable when no fix could be obtained within
// the platform's accuracy/time budget.
type FixSource interface {
	RequestPermission(ctx context.Context) error
	Fix(ctx context.Context) (Coordinates, error)
}

// Geocoder resolves a coordinate pair into a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Probe resolves device coordinates and, on request, a best-effort address.
type Probe struct {
	source         FixSource
	geocoder       Geocoder
	geocodeTimeout time.Duration
}

func NewProbe(source FixSource, geocoder Geocoder, geocodeTimeout time.Duration) *Probe {
	if geocodeTimeout <= 0 {
		geocodeTimeout = 3 * time.Second
	}
	return &Probe{
		source:         source,
		geocoder:       geocoder,
		geocodeTimeout: geocodeTimeout,
	}
}

// Resolve obtains a coordinate fix without address resolution. A nil error
// implies a valid result; the error otherwise distinguishes permission denial
// from fix failure.
func (p *Probe) Resolve(ctx context.Context) (punch.LocationInfo, error) {
	if err := p.source.RequestPermission(ctx); err != nil {
		return punch.LocationInfo{}, fmt.Errorf("location permission: %w", err)
	}

	coords, err := p.source.Fix(ctx)
	if err != nil {
		return punch.LocationInfo{}, fmt.Errorf("location fix: %w", err)
	}

	return punch.LocationInfo{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Address:   FormatCoordinates(coords.Latitude, coords.Longitude),
		IsValid:   true,
	}, nil
}

// ResolveWithAddress is Resolve plus a bounded reverse-geocode. Geocode
// failure degrades the address to the coordinate string; it never invalidates
// the probe.
func (p *Probe) ResolveWithAddress(ctx context.Context) (punch.LocationInfo, error) {
	info, err := p.Resolve(ctx)
	if err != nil {
		return info, err
	}

	if p.geocoder == nil {
		return info, nil
	}

	geocodeCtx, cancel := context.WithTimeout(ctx, p.geocodeTimeout)
	defer cancel()

	address, err := p.geocoder.ReverseGeocode(geocodeCtx, info.Latitude, info.Longitude)
	if err != nil || address == "" {
		slog.Debug("Location probe: reverse geocode failed, keeping coordinate string", "error", err)
		return info, nil
	}

	info.Address = address
	return info, nil
}

// FormatCoordinates renders the degraded address form used when no geocoded
// address is available.
func FormatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + ", " + strconv.FormatFloat(lon, 'f', 6, 64)
}
