// Package camera captures the punch selfie through platform tooling.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
)

// ExecCamera shells out to a capture tool (termux-camera-photo, fswebcam)
// that writes a JPEG to the path given as its final argument.
type ExecCamera struct {
	Command []string
	Dir     string
	now     func() time.Time
}

func NewExecCamera(command []string, dir string) *ExecCamera {
	if len(command) == 0 {
		command = []string{"termux-camera-photo", "-c", "1"}
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &ExecCamera{Command: command, Dir: dir, now: time.Now}
}

func (c *ExecCamera) Capture(ctx context.Context) (string, error) {
	path := filepath.Join(c.Dir, fmt.Sprintf("punch-%d.jpg", c.now().UnixNano()))

	args := append(append([]string{}, c.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", punch.ErrCaptureCancelled
		}
		return "", fmt.Errorf("%w: %v", punch.ErrCaptureFailed, err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: capture produced no image", punch.ErrCaptureFailed)
	}
	return path, nil
}
