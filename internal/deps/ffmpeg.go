package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// MediaRequirements lists the binaries the audio pipeline needs.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Decodes downloads and encodes FLAC chunks"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Reads sample rate and channel layout"},
	}
}

// Version returns the first line of "<binary> -version", or "" when the
// binary cannot be run.
func Version(ctx context.Context, binary string) string {
	out, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// Describe fills Detail with the version line of every available binary.
func Describe(ctx context.Context, statuses []Status) []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	for i := range out {
		if out[i].Available && out[i].Detail == "" {
			out[i].Detail = Version(ctx, out[i].Path)
		}
	}
	return out
}
