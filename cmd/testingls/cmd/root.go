package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/testingls/internal/version"
)

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "testingls-lsp",
		Usage:   "A Language Server Protocol server for multi-framework test discovery and execution",
		Version: version.Version(),
		Description: `testingls-lsp discovers and runs tests for Go, Rust (cargo test and
cargo-nextest), jest, vitest, deno, phpunit, and node:test through the
Language Server Protocol, delegating the framework-specific work to
per-language adapter subprocesses.

Examples:
  testingls-lsp lsp --stdio`,
		Commands: []*cli.Command{
			lspCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
