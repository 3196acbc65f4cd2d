package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"encoding/json/v2"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/testingls/internal/adapterapp"
	"github.com/wharflab/testingls/internal/workspace"
)

func detectWorkspaceCommand() *cli.Command {
	return &cli.Command{
		Name:  "detect-workspace",
		Usage: "Group file-paths by detected project/workspace root",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "file-paths", Usage: "files to group", Required: true},
			logDirFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			filePaths := cmd.StringSlice("file-paths")
			extra := cmd.Args().Slice()

			_, runner, err := adapterapp.PickTestKind(extra)
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
			result := workspace.DetectWorkspacesFromFileList(filePaths, runner.MarkerFiles())
			adapterapp.LogInvocation(logger, "detect-workspace", "", filePaths, 0, time.Since(start), nil)

			return json.MarshalWrite(os.Stdout, result)
		},
	}
}
