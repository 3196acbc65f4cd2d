package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"encoding/json/v2"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/testingls/internal/adapterapp"
)

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Scan file-paths for test items",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "file-paths", Usage: "files to scan", Required: true},
			logDirFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			filePaths := cmd.StringSlice("file-paths")
			extra := cmd.Args().Slice()

			remaining, runner, err := adapterapp.PickTestKind(extra)
			if err != nil {
				return err
			}

			logDir, err := resolveLogDir(cmd)
			if err != nil {
				return fmt.Errorf("resolve log dir: %w", err)
			}
			logger, closeLog, err := adapterapp.NewLogger(logDir, runner.TestKind())
			if err != nil {
				return fmt.Errorf("open adapter log: %w", err)
			}
			defer closeLog() //nolint:errcheck // best-effort log flush on exit

			start := time.Now()
			result, runErr := runner.Discover(filePaths, remaining)
			adapterapp.LogInvocation(logger, "discover", "", filePaths, exitCodeOf(runErr), time.Since(start), runErr)
			if runErr != nil {
				return fmt.Errorf("discover: %w", runErr)
			}

			return json.MarshalWrite(os.Stdout, result)
		},
	}
}
