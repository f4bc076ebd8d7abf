package geoloc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// ExecFixSource shells out to platform location tooling for a coordinate fix.
// The command must print a JSON object with latitude/longitude fields, which
// is what termux-location and gpspipe-style wrappers emit.
type ExecFixSource struct {
	Command []string
}

func NewExecFixSource(command []string) *ExecFixSource {
	if len(command) == 0 {
		command = []string{"termux-location", "-p", "gps"}
	}
	return &ExecFixSource{Command: command}
}

// RequestPermission checks that the location tool is present at all; the
// tool itself surfaces the OS permission prompt on first use.
func (s *ExecFixSource) RequestPermission(ctx context.Context) error {
	if _, err := exec.LookPath(s.Command[0]); err != nil {
		return fmt.Errorf("%w: %s not found", punch.ErrPermissionDenied, s.Command[0])
	}
	return nil
}

func (s *ExecFixSource) Fix(ctx context.Context) (Coordinates, error) {
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if strings.Contains(strings.ToLower(stderr.String()), "permission") {
			return Coordinates{}, fmt.Errorf("%w: %s", punch.ErrPermissionDenied, strings.TrimSpace(stderr.String()))
		}
		return Coordinates{}, fmt.Errorf("%w: %v", punch.ErrLocationUnavailable, err)
	}

	var fix struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(out, &fix); err != nil {
		return Coordinates{}, fmt.Errorf("%w: unparseable fix output: %v", punch.ErrLocationUnavailable, err)
	}
	if fix.Latitude == 0 && fix.Longitude == 0 {
		return Coordinates{}, fmt.Errorf("%w: empty fix", punch.ErrLocationUnavailable)
	}

	return Coordinates{Latitude: fix.Latitude, Longitude: fix.Longitude}, nil
}
