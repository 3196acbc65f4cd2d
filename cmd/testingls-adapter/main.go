// Command testingls-adapter is the short-lived subprocess the
// testingls-lsp server spawns once per request: discover, run-file-test,
// or detect-workspace, each producing a single JSON result document on
// stdout and exiting.
package main

import (
	"os"

	"github.com/wharflab/testingls/cmd/testingls-adapter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}
