package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// recordingFileName matches spec.md §6: the on-disk capture file is an
// opaque container named recording.caf, raw little-endian float32 samples
// that only the Speech Client knows how to convert.
const recordingFileName = "recording.caf"

// recordingPath resolves the fixed per-run capture path under the XDG state
// directory, mirroring the teacher's debug-artifact directory convention.
func recordingPath() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	recordDir := filepath.Join(dir, "justwhisper")
	if err := os.MkdirAll(recordDir, 0o700); err != nil {
		return "", fmt.Errorf("create recording state dir: %w", err)
	}
	return filepath.Join(recordDir, recordingFileName), nil
}

// stateDir returns XDG_STATE_HOME, falling back to ~/.local/state.
func stateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
