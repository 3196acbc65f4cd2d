package adapterapp

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/wharflab/testingls/internal/xdgstate"
)

// DefaultLogDir returns the adapter's default log directory. This
// mirrors testingls-lsp's own server.log placement, and the original
// adapter's ~/.config/testing_language_server/adapter/ convention,
// updated to the XDG state directory.
func DefaultLogDir() (string, error) {
	return xdgstate.Dir()
}

// NewLogger opens (creating if needed) logDir/<testKind>.log and returns a
// zerolog.Logger that writes one structured JSON event per adapter
// invocation to it. Unlike the server's plain log.Logger, the adapter is
// a short-lived one-shot process, so a single structured event carrying
// test_kind/workspace/files/exit_code is more useful than free-form text.
func NewLogger(logDir, testKind string) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	path := filepath.Join(logDir, testKind+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	logger := zerolog.New(f).With().Timestamp().Str("test_kind", testKind).Logger()
	return logger, f.Close, nil
}

// LogInvocation writes one structured event summarizing a completed
// adapter subcommand invocation.
func LogInvocation(logger zerolog.Logger, subcommand, workspace string, files []string, exitCode int, elapsed time.Duration, err error) {
	ev := logger.Info()
	if err != nil {
		ev = logger.Error().Err(err)
	}
	ev.Str("subcommand", subcommand).
		Str("workspace", workspace).
		Int("files", len(files)).
		Int("exit_code", exitCode).
		Dur("elapsed", elapsed).
		Msg("adapter invocation")
}
