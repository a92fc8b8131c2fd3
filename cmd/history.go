package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/imgmatch/internal/formatter"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded match runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if state := cmd.String("state"); state != "" {
		criteria["state"] = state
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.runs.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		records := make([]formatter.RunRecord, len(runs))
		for i, run := range runs {
			records[i] = formatter.NewRunRecord(run)
		}
		return r.writeJSON(records, true)
	}

	r.writePlainHeader(fmt.Sprintf("Match runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.writePlain("No runs recorded yet.\n")
		return nil
	}
	for _, run := range runs {
		r.writePlain("%s  %-9s  %3d matches  %8.2f ms  %s\n",
			run.ID(), run.State, len(run.Matches), run.ElapsedMS, run.CreatedAt().Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// HistoryShow exports one recorded run to stdout or --output.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.runs.Get(id)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteExport(run, format, output); err != nil {
			return err
		}
		r.writePlain("✓ Exported run %s to %s\n", id, output)
		return nil
	}

	data, err := formatter.Export(run, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
