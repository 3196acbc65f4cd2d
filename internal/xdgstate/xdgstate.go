// Package xdgstate resolves testingls's state directory: XDG_STATE_HOME
// when set, falling back to ~/.local/state. Both the server (server.log)
// and the adapter (per-test-kind structured logs) use the same
// "testingls" subdirectory under it.
package xdgstate

import (
	"os"
	"path/filepath"
)

// Dir returns $XDG_STATE_HOME/testingls, or ~/.local/state/testingls
// when XDG_STATE_HOME is unset.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "testingls"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "testingls"), nil
}
