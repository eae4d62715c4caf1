//go:build windows

package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"os/exec"
)

type windowsBackend struct{ tempDir string }

// captureScript snapshots the virtual screen via System.Drawing. Kept as a
// single statement list so it survives -Command quoting.
const captureScript = `Add-Type -AssemblyName System.Windows.Forms,System.Drawing;` +
	`$b=[System.Windows.Forms.SystemInformation]::VirtualScreen;` +
	`$bmp=New-Object System.Drawing.Bitmap $b.Width,$b.Height;` +
	`$g=[System.Drawing.Graphics]::FromImage($bmp);` +
	`$g.CopyFromScreen($b.Left,$b.Top,0,0,$bmp.Size);` +
	`$bmp.Save('%s',[System.Drawing.Imaging.ImageFormat]::Png);` +
	`$g.Dispose();$bmp.Dispose()`

func (w *windowsBackend) captureRaw(ctx context.Context) []byte {
	tmpFile := filepath.Join(w.tempDir, "screenshot.png")
	script := fmt.Sprintf(captureScript, strings.ReplaceAll(tmpFile, `'`, `''`))

	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("powershell capture failed", "error", err, "stderr", stderr.String())
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

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific frame source. The tool override is unused
// on Windows.
func New(_ string) Source {
	tmpDir, err := os.MkdirTemp("", "gamewatcher-frames-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
