package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

type uploadResult struct {
	Slot    models.Slot             `json:"slot"`
	Source  string                  `json:"source"`
	URL     models.ImageReference   `json:"url,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Gallery []models.ImageReference `json:"gallery,omitempty"`
}

// Upload sends each argument through the upload capability into the chosen slot.
//
// Reference uploads only live for this invocation, so the resulting URL is printed for use with
// 'match run --reference'. Gallery uploads are persisted.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: upload <reference|gallery> <path|url|camera>...", shared.ErrMissingArgument)
	}

	slot, err := models.ParseSlot(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	sources := make([]models.UploadSource, 0, len(args)-1)
	for _, arg := range args[1:] {
		sources = append(sources, models.ParseSource(arg))
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.uploader.RequestUpload(ctx, slot, sources)
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	var progress chan tasks.ProgressUpdate
	var done chan struct{}
	if !asJSON {
		progress, done = make(chan tasks.ProgressUpdate, 8), make(chan struct{})
		go r.printProgress(progress, done)
	}
	results := tasks.Drain(events, progress)
	if progress != nil {
		close(progress)
		<-done
	}

	failed := 0
	out := make([]uploadResult, len(results))
	for i, ev := range results {
		out[i] = uploadResult{Slot: ev.Slot, Source: ev.Outcome.Source.Label(), URL: ev.Ref, Gallery: ev.Gallery}
		if ev.Err != nil {
			failed++
			out[i].Error = ev.Err.Error()
			r.logger.Debug("upload item failed", "source", out[i].Source, "error", ev.Err)
		}
	}

	if asJSON {
		if err := r.writeJSON(out, true); err != nil {
			return err
		}
	} else if slot == models.SlotReference && failed == 0 && len(results) > 0 {
		r.writePlainln("Reference URL: %s", results[0].Ref)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d items failed", shared.ErrUploadFailed, failed, len(sources))
	}
	return nil
}
