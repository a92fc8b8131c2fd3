package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
	tu "github.com/desertthunder/imgmatch/internal/testing"
)

var testCloud = shared.CloudinaryConfig{CloudName: "demo", UploadPreset: "preset"}

func urlSources(n int) []models.UploadSource {
	out := make([]models.UploadSource, n)
	for i := range out {
		out[i] = models.UploadSource{Kind: models.SourceURL, URL: fmt.Sprintf("https://x/%d.jpg", i)}
	}
	return out
}

func TestSlotOptions(t *testing.T) {
	o := NewOrchestrator(NewSession(), newStore(t), nil, testCloud, nil)

	tests := []struct {
		slot     models.Slot
		multiple bool
		max      int
		wantErr  bool
	}{
		{slot: models.SlotReference, max: 1},
		{slot: models.SlotGallery, multiple: true, max: 10},
		{slot: "avatar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.slot), func(t *testing.T) {
			opts, err := o.SlotOptions(tt.slot)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SlotOptions() error = %v", err)
			}
			if opts.Multiple != tt.multiple || opts.MaxFiles != tt.max {
				t.Errorf("unexpected options %+v", opts)
			}
			if opts.CloudName != "demo" || opts.UploadPreset != "preset" {
				t.Errorf("expected cloud identifiers from config, got %+v", opts)
			}
			for _, k := range models.AllSources {
				if !opts.Allows(k) {
					t.Errorf("expected %s to be permitted", k)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("Reference overwrites the slot", func(t *testing.T) {
		session := NewSession()
		o := NewOrchestrator(session, newStore(t), nil, testCloud, nil)

		o.Apply(ctx, models.SlotReference, models.UploadOutcome{Ref: "https://x/a.jpg"})
		ev := o.Apply(ctx, models.SlotReference, models.UploadOutcome{Ref: "https://x/b.jpg"})

		if ev.Err != nil || ev.Ref != "https://x/b.jpg" {
			t.Errorf("unexpected event %+v", ev)
		}
		if session.Reference() != "https://x/b.jpg" {
			t.Errorf("expected reference to be overwritten, got %s", session.Reference())
		}
	})

	t.Run("Gallery appends in order without dedup", func(t *testing.T) {
		store := newStore(t)
		o := NewOrchestrator(NewSession(), store, nil, testCloud, nil)

		refs := []models.ImageReference{"https://x/a.jpg", "https://x/b.jpg", "https://x/a.jpg"}
		for i, ref := range refs {
			ev := o.Apply(ctx, models.SlotGallery, models.UploadOutcome{Ref: ref})
			if ev.Err != nil {
				t.Fatalf("Apply() error = %v", ev.Err)
			}
			if len(ev.Gallery) != i+1 || ev.Gallery[i] != ref {
				t.Errorf("step %d: unexpected gallery %v", i, ev.Gallery)
			}
		}

		if got := store.Load(ctx); len(got) != 3 || got[2] != "https://x/a.jpg" {
			t.Errorf("unexpected persisted gallery %v", got)
		}
	})

	t.Run("Malformed URLs are rejected without mutation", func(t *testing.T) {
		for _, bad := range []models.ImageReference{"not a url", "example.com/a.jpg", "http://", " https://x/a.jpg"} {
			for _, slot := range []models.Slot{models.SlotReference, models.SlotGallery} {
				session := NewSession()
				store := newStore(t)
				o := NewOrchestrator(session, store, nil, testCloud, nil)

				ev := o.Apply(ctx, slot, models.UploadOutcome{Ref: bad})
				if !errors.Is(ev.Err, shared.ErrInvalidImageURL) {
					t.Errorf("%s %q: expected ErrInvalidImageURL, got %v", slot, bad, ev.Err)
				}
				if ev.Message != MsgInvalidImageURL || session.Snapshot().Error != MsgInvalidImageURL {
					t.Errorf("%s %q: expected visible error", slot, bad)
				}
				if session.Reference() != "" || len(store.Load(ctx)) != 0 {
					t.Errorf("%s %q: expected no mutation", slot, bad)
				}
			}
		}
	})

	t.Run("Capability failures are surfaced", func(t *testing.T) {
		session := NewSession()
		store := newStore(t)
		o := NewOrchestrator(session, store, nil, testCloud, nil)

		ev := o.Apply(ctx, models.SlotGallery, models.UploadOutcome{Err: errors.New("widget closed")})
		if !errors.Is(ev.Err, shared.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed, got %v", ev.Err)
		}
		if session.Snapshot().Error != MsgUploadFailed {
			t.Errorf("expected %q, got %q", MsgUploadFailed, session.Snapshot().Error)
		}
		if len(store.Load(ctx)) != 0 {
			t.Error("expected no mutation")
		}
	})
}

func TestRequestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("Streams one event per outcome", func(t *testing.T) {
		capability := &tu.MockCapability{Outcomes: []models.UploadOutcome{
			{Ref: "https://x/a.jpg"},
			{Err: errors.New("too large")},
			{Ref: "bogus"},
			{Ref: "https://x/b.jpg"},
		}}
		store := newStore(t)
		o := NewOrchestrator(NewSession(), store, capability, testCloud, nil)

		events, err := o.RequestUpload(ctx, models.SlotGallery, urlSources(4))
		if err != nil {
			t.Fatalf("RequestUpload() error = %v", err)
		}

		progress := make(chan ProgressUpdate, 10)
		got := Drain(events, progress)
		if len(got) != 4 {
			t.Fatalf("expected 4 events, got %d", len(got))
		}
		if got[0].Err != nil || got[3].Err != nil {
			t.Errorf("expected first and last to succeed: %v %v", got[0].Err, got[3].Err)
		}
		if !errors.Is(got[1].Err, shared.ErrUploadFailed) || !errors.Is(got[2].Err, shared.ErrInvalidImageURL) {
			t.Errorf("unexpected failures: %v %v", got[1].Err, got[2].Err)
		}
		if list := store.Load(ctx); len(list) != 2 || list[1] != "https://x/b.jpg" {
			t.Errorf("unexpected gallery %v", list)
		}
		if len(progress) != 4 {
			t.Errorf("expected 4 progress updates, got %d", len(progress))
		}

		opts := capability.Options()
		if len(opts) != 1 || !opts[0].Multiple || opts[0].MaxFiles != GalleryMaxFiles {
			t.Errorf("unexpected capability options %+v", opts)
		}
	})

	t.Run("Synchronous rejections", func(t *testing.T) {
		o := NewOrchestrator(NewSession(), newStore(t), &tu.MockCapability{}, testCloud, nil)

		tests := []struct {
			name    string
			slot    models.Slot
			sources []models.UploadSource
			want    error
		}{
			{name: "unknown slot", slot: "avatar", sources: urlSources(1), want: shared.ErrInvalidInput},
			{name: "no sources", slot: models.SlotGallery, want: shared.ErrMissingArgument},
			{name: "two references", slot: models.SlotReference, sources: urlSources(2), want: shared.ErrInvalidInput},
			{name: "eleven gallery images", slot: models.SlotGallery, sources: urlSources(11), want: shared.ErrInvalidInput},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := o.RequestUpload(ctx, tt.slot, tt.sources); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Missing capability", func(t *testing.T) {
		o := NewOrchestrator(NewSession(), newStore(t), nil, testCloud, nil)
		if _, err := o.RequestUpload(ctx, models.SlotReference, urlSources(1)); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
