package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reads media durations. The command-backed implementation shells
// out to ffprobe; tests substitute a fixed-value fake.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe implements Prober with the ffprobe CLI.
type FFprobe struct {
	// Bin is the ffprobe executable. Empty resolves "ffprobe" from PATH.
	Bin string
}

// Duration returns the container duration in seconds.
func (f *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	bin := f.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parsing duration: %w", path, err)
	}
	return dur, nil
}
