// Command testingls-lsp is the Language Server Protocol front end for
// multi-framework test discovery and execution.
package main

import (
	"fmt"
	"os"

	"github.com/wharflab/testingls/cmd/testingls/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
