package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/testingls/internal/lspserver"
	"github.com/wharflab/testingls/internal/xdgstate"
)

// ExitConfigError is returned when the server cannot start due to a
// usage or environment error (e.g. an unsupported transport).
const ExitConfigError = 2

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Start the Language Server Protocol server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Use stdin/stdout for communication (required)",
				Value: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("stdio") {
				fmt.Fprintln(os.Stderr, "Error: only --stdio transport is supported")
				return cli.Exit("", ExitConfigError)
			}

			if closeLog, err := redirectLogToStateFile(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open server log file: %v\n", err)
			} else {
				defer closeLog() //nolint:errcheck // best-effort flush on exit
			}

			server := lspserver.New()
			return server.RunStdio(ctx)
		},
	}
}

// redirectLogToStateFile points the standard library logger at
// server.log under the XDG state directory, since stdout is the
// JSON-RPC channel and must never carry log output.
func redirectLogToStateFile() (func() error, error) {
	dir, err := xdgstate.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "server.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f.Close, nil
}
