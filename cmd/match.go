package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/imgmatch/internal/formatter"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/desertthunder/imgmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// healthChecker is implemented by matchers that can probe their endpoint.
type healthChecker interface {
	Health(ctx context.Context) error
}

// MatchRun submits the reference and the persisted gallery to the match service.
//
// The recorded run is printed in --format; with --download every match is saved afterwards.
func (r *Runner) MatchRun(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if ref := cmd.String("reference"); ref != "" {
		reference := models.ImageReference(ref)
		if !reference.Valid() {
			return fmt.Errorf("%w: %q", shared.ErrInvalidImageURL, ref)
		}
		a.session.SetReference(reference)
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	snap, submitErr := a.engine.Submit(ctx, progress)
	close(progress)
	<-done

	if errors.Is(submitErr, shared.ErrMissingImages) {
		return submitErr
	}

	runs, err := a.runs.List(map[string]any{"limit": 1})
	if err != nil {
		return fmt.Errorf("failed to load recorded run: %w", err)
	}
	if len(runs) > 0 {
		data, err := formatter.Export(runs[0], format)
		if err != nil {
			return err
		}
		r.writePlainln("%s", data)
	}

	if submitErr != nil {
		return submitErr
	}

	if cmd.Bool("download") && len(snap.Matches) > 0 {
		return r.downloadAll(ctx, snap.Matches, cmd.String("dir"))
	}
	return nil
}

func (r *Runner) downloadAll(ctx context.Context, matches []models.ImageReference, dir string) error {
	progress := make(chan tasks.ProgressUpdate, len(matches))
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := tasks.DownloadAll(ctx, matches, r.downloadOpts(dir), progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	r.writePlainln("Downloaded %d/%d images to %s", result.Succeeded, len(matches), result.Dir)
	if result.Failed > 0 {
		r.logger.Warn("some downloads failed", "failed", result.Failed)
	}
	return nil
}

// MatchHealth checks that the match service answers.
func (r *Runner) MatchHealth(ctx context.Context, cmd *cli.Command) error {
	r.ensureServices(ctx)
	hc, ok := r.matcher.(healthChecker)
	if !ok {
		return fmt.Errorf("%w: matcher does not support health checks", shared.ErrNotImplemented)
	}

	if err := hc.Health(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Match service is reachable\n")
	return nil
}
