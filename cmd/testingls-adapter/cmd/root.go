package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/testingls/internal/adapterapp"
	"github.com/wharflab/testingls/internal/version"
)

// logDirFlag is shared by every subcommand: the directory the adapter's
// own structured log file is written to, defaulting to the XDG state
// directory convention used by testingls-lsp's own server.log.
func logDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-dir",
		Usage: "directory for this adapter's structured log file (defaults to the XDG state dir)",
	}
}

func resolveLogDir(cmd *cli.Command) (string, error) {
	if dir := cmd.String("log-dir"); dir != "" {
		return dir, nil
	}
	return adapterapp.DefaultLogDir()
}

// NewApp builds the testingls-adapter command tree: discover,
// run-file-test, detect-workspace.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "testingls-adapter",
		Usage:   "Adapter subprocess for testingls-lsp: discover, run-file-test, detect-workspace",
		Version: version.Version(),
		Commands: []*cli.Command{
			discoverCommand(),
			runFileTestCommand(),
			detectWorkspaceCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}

// PrintError writes err to stderr, colorized when stderr is a terminal
// (the common case, where the server has redirected it to a pipe, is
// left uncolored).
func PrintError(err error) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "\x1b[31merror:\x1b[0m %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
