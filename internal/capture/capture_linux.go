//go:build linux

package capture

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

type linuxBackend struct {
	tempDir string
	tool    string
}

func (l *linuxBackend) captureRaw(ctx context.Context) []byte {
	tmpFile := filepath.Join(l.tempDir, "screenshot.png")

	tool := l.tool
	if tool == "" {
		for _, candidate := range []string{"gnome-screenshot", "scrot", "grim"} {
			if _, err := exec.LookPath(candidate); err == nil {
				tool = candidate
				break
			}
		}
	}

	var cmd *exec.Cmd
	switch tool {
	case "gnome-screenshot":
		cmd = exec.CommandContext(ctx, "gnome-screenshot", "-f", tmpFile)
	case "scrot":
		cmd = exec.CommandContext(ctx, "scrot", "-o", tmpFile)
	case "grim":
		cmd = exec.CommandContext(ctx, "grim", tmpFile)
	default:
		slog.Error("no screenshot tool found (install gnome-screenshot, scrot, or grim)")
		return nil
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "tool", tool, "error", err, "stderr", stderr.String())
		return nil
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		slog.Error("failed to read screenshot", "error", err)
		return nil
	}
	os.Remove(tmpFile)
	return data
}

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific frame source. On Linux, tool pins the
// screenshot command instead of probing PATH.
func New(tool string) Source {
	tmpDir, err := os.MkdirTemp("", "gamewatcher-frames-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir, tool: tool}, tmpDir)
}
