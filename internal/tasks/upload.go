package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/gallery"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/services"
	"github.com/desertthunder/imgmatch/internal/shared"
)

// Per-slot file limits.
const (
	ReferenceMaxFiles = 1
	GalleryMaxFiles   = 10
)

// UploadEvent is the orchestrator's result for one upload outcome.
type UploadEvent struct {
	Slot    models.Slot
	Outcome models.UploadOutcome
	Ref     models.ImageReference   // accepted reference; empty on failure
	Gallery []models.ImageReference // gallery list after a successful gallery append
	Message string                  // user-visible error, empty on success
	Err     error
}

// Orchestrator routes upload results into the reference slot or the gallery store.
type Orchestrator struct {
	session    *Session
	gallery    gallery.Store
	capability services.UploadCapability
	cloud      shared.CloudinaryConfig
	logger     *log.Logger
}

// NewOrchestrator creates an Orchestrator writing to session and store.
func NewOrchestrator(session *Session, store gallery.Store, capability services.UploadCapability, cloud shared.CloudinaryConfig, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		session:    session,
		gallery:    store,
		capability: capability,
		cloud:      cloud,
		logger:     shared.WithLogger(logger, "component", "upload"),
	}
}

// SlotOptions returns the capability configuration for slot.
func (o *Orchestrator) SlotOptions(slot models.Slot) (models.UploadOptions, error) {
	opts := models.UploadOptions{
		CloudName:    o.cloud.CloudName,
		UploadPreset: o.cloud.UploadPreset,
		Sources:      append([]models.SourceKind(nil), models.AllSources...),
	}

	switch slot {
	case models.SlotReference:
		opts.MaxFiles = ReferenceMaxFiles
	case models.SlotGallery:
		opts.Multiple = true
		opts.MaxFiles = GalleryMaxFiles
	default:
		return models.UploadOptions{}, fmt.Errorf("%w: unknown slot %q", shared.ErrInvalidInput, slot)
	}
	return opts, nil
}

// RequestUpload hands sources to the upload capability and returns immediately.
//
// Each outcome is applied as it arrives and forwarded as an [UploadEvent]; the channel closes when the
// capability's stream ends. Only an unknown slot, no sources or too many sources fail synchronously.
func (o *Orchestrator) RequestUpload(ctx context.Context, slot models.Slot, sources []models.UploadSource) (<-chan UploadEvent, error) {
	opts, err := o.SlotOptions(slot)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no files or URLs to upload", shared.ErrMissingArgument)
	}
	if len(sources) > opts.MaxFiles {
		return nil, fmt.Errorf("%w: %s accepts at most %d files, got %d", shared.ErrInvalidInput, slot, opts.MaxFiles, len(sources))
	}
	if o.capability == nil {
		return nil, fmt.Errorf("%w: upload capability not initialized", shared.ErrServiceUnavailable)
	}

	o.logger.Info("requesting upload", "slot", slot, "items", len(sources))

	outcomes := o.capability.Upload(ctx, opts, sources)
	events := make(chan UploadEvent)

	go func() {
		defer close(events)
		for outcome := range outcomes {
			ev := o.Apply(ctx, slot, outcome)
			select {
			case events <- ev:
			case <-ctx.Done():
				// keep draining so the capability can finish
			}
		}
	}()

	return events, nil
}

// Apply validates one outcome and performs the slot's mutation.
//
// A capability error or a malformed URL sets the session error line and mutates nothing.
func (o *Orchestrator) Apply(ctx context.Context, slot models.Slot, outcome models.UploadOutcome) UploadEvent {
	ev := UploadEvent{Slot: slot, Outcome: outcome}

	switch {
	case outcome.Err != nil:
		ev.Message = MsgUploadFailed
		ev.Err = fmt.Errorf("%w: %v", shared.ErrUploadFailed, outcome.Err)
	case !outcome.Ref.Valid():
		ev.Message = MsgInvalidImageURL
		ev.Err = fmt.Errorf("%w: %q", shared.ErrInvalidImageURL, outcome.Ref)
	}
	if ev.Err != nil {
		o.logger.Warn("upload rejected", "slot", slot, "source", outcome.Source.Label(), "error", ev.Err)
		o.session.SetError(ev.Message)
		return ev
	}

	switch slot {
	case models.SlotReference:
		o.session.SetReference(outcome.Ref)
	case models.SlotGallery:
		list, err := o.gallery.Append(ctx, outcome.Ref)
		if err != nil {
			ev.Message = MsgUploadFailed
			ev.Err = err
			o.logger.Error("failed to persist gallery image", "ref", outcome.Ref, "error", err)
			o.session.SetError(ev.Message)
			return ev
		}
		ev.Gallery = list
	default:
		ev.Err = fmt.Errorf("%w: unknown slot %q", shared.ErrInvalidInput, slot)
		return ev
	}

	ev.Ref = outcome.Ref
	o.logger.Info("upload accepted", "slot", slot, "ref", outcome.Ref)
	return ev
}

// Drain consumes events until the channel closes, forwarding progress, and returns them in order.
func Drain(events <-chan UploadEvent, progress chan<- ProgressUpdate) []UploadEvent {
	var out []UploadEvent
	for ev := range events {
		out = append(out, ev)
		sendProgress(progress, uploadUpdate(len(out), ev))
	}
	return out
}
