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

func runFileTestCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-file-test",
		Usage: "Run tests found in file-paths and report diagnostics",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "file-paths", Usage: "files to test", Required: true},
			&cli.StringFlag{Name: "workspace", Usage: "workspace root the tests run from"},
			logDirFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			filePaths := cmd.StringSlice("file-paths")
			workspace := cmd.String("workspace")
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
			result, runErr := runner.RunFileTest(filePaths, workspace, logDir, remaining)
			adapterapp.LogInvocation(logger, "run-file-test", workspace, filePaths, exitCodeOf(runErr), time.Since(start), runErr)
			if runErr != nil {
				return fmt.Errorf("run-file-test: %w", runErr)
			}

			return json.MarshalWrite(os.Stdout, result)
		},
	}
}
