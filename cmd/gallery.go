package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// GalleryList prints the persisted gallery.
func (r *Runner) GalleryList(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.store.Load(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(models.Strings(list), cmd.Bool("pretty"))
	}

	r.printGallery(list)
	return nil
}

// GalleryAdd appends hosted image URLs to the gallery without uploading them.
func (r *Runner) GalleryAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one URL is required", shared.ErrMissingArgument)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var list []models.ImageReference
	for _, arg := range args {
		if list, err = a.store.Append(ctx, models.ImageReference(arg)); err != nil {
			return err
		}
		r.logger.Info("gallery image added", "url", arg)
	}

	r.writePlain("✓ Gallery now has %d images\n", len(list))
	return nil
}

// GalleryWatch prints the gallery each time another process appends to it, until interrupted.
func (r *Runner) GalleryWatch(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	changes := make(chan []models.ImageReference, 1)
	cancel := a.store.Subscribe(func(list []models.ImageReference) {
		select {
		case changes <- list:
		case <-ctx.Done():
		}
	})
	defer cancel()
	a.store.Start(ctx)

	r.printGallery(a.store.Load(ctx))
	r.logger.Info("watching gallery for changes", "key", a.store.Key(), "interval", r.config.PollInterval())

	for {
		select {
		case <-ctx.Done():
			return nil
		case list := <-changes:
			r.writePlainln("Gallery changed")
			r.printGallery(list)
		}
	}
}

func (r *Runner) printGallery(list []models.ImageReference) {
	r.writePlainHeader(fmt.Sprintf("Gallery (%d images)", len(list)))
	if len(list) == 0 {
		r.writePlain("Gallery is empty.\n")
		return
	}
	for i, ref := range list {
		r.writePlain("%3d. %s\n", i+1, ref)
	}
}
