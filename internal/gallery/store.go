package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "galleryUrls"

// Store is the gallery list shared by the upload orchestrator, the match workflow and the views.
type Store interface {
	// Load reads the persisted list; a missing or unparsable value yields an empty list.
	Load(ctx context.Context) []models.ImageReference

	// Append adds ref to the end of the list, persists it and returns the new list.
	Append(ctx context.Context, ref models.ImageReference) ([]models.ImageReference, error)

	// Subscribe registers handler for changes made by other execution contexts.
	Subscribe(handler func([]models.ImageReference)) (cancel func())
}

// PersistedStore implements [Store] over a [Backend].
type PersistedStore struct {
	backend Backend
	key     string
	logger  *log.Logger

	mu sync.Mutex // serializes read-modify-write within this process

	subMu  sync.Mutex
	subs   map[int]func([]models.ImageReference)
	nextID int

	stop context.CancelFunc
	done chan struct{}
}

var _ Store = (*PersistedStore)(nil)

// NewStore creates a PersistedStore for key (default [DefaultKey]).
func NewStore(backend Backend, key string, logger *log.Logger) *PersistedStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PersistedStore{
		backend: backend,
		key:     key,
		logger:  shared.WithLogger(logger, "component", "gallery"),
		subs:    make(map[int]func([]models.ImageReference)),
	}
}

// Key returns the storage key.
func (s *PersistedStore) Key() string { return s.key }

// Load implements [Store].
func (s *PersistedStore) Load(ctx context.Context) []models.ImageReference {
	data, ok, err := s.backend.Read(ctx, s.key)
	if err != nil {
		s.logger.Error("failed to read gallery", "key", s.key, "error", err)
		return []models.ImageReference{}
	}
	if !ok {
		return []models.ImageReference{}
	}
	return s.decode(data)
}

func (s *PersistedStore) decode(data []byte) []models.ImageReference {
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		s.logger.Warn("discarding unparsable gallery", "key", s.key, "error", err)
		return []models.ImageReference{}
	}
	return models.References(urls)
}

// Append implements [Store].
//
// ref must be a well-formed URL; the only other error is a backend write failure.
func (s *PersistedStore) Append(ctx context.Context, ref models.ImageReference) ([]models.ImageReference, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidImageURL, ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.backend.Read(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery: %w", err)
	}
	list := []models.ImageReference{}
	if ok {
		list = s.decode(data)
	}
	list = append(list, ref)

	data, err = json.Marshal(models.Strings(list))
	if err != nil {
		return nil, fmt.Errorf("failed to encode gallery: %w", err)
	}
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return nil, fmt.Errorf("failed to persist gallery: %w", err)
	}

	s.logger.Debug("appended gallery image", "ref", ref, "count", len(list))
	return list, nil
}

// Subscribe implements [Store]. Handlers run on the watch goroutine started by [PersistedStore.Start].
func (s *PersistedStore) Subscribe(handler func([]models.ImageReference)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = handler
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Start watches the backend for external changes until ctx is done or [PersistedStore.Close] is called.
// Calling Start on a running store is a no-op.
func (s *PersistedStore) Start(ctx context.Context) {
	s.subMu.Lock()
	if s.done != nil {
		s.subMu.Unlock()
		return
	}
	ctx, s.stop = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.subMu.Unlock()

	changes := s.backend.Watch(ctx)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				s.notify(s.Load(ctx))
			}
		}
	}()
}

func (s *PersistedStore) notify(list []models.ImageReference) {
	s.subMu.Lock()
	handlers := make([]func([]models.ImageReference), 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subMu.Unlock()

	s.logger.Debug("gallery changed externally", "count", len(list), "subscribers", len(handlers))
	for _, h := range handlers {
		h(append([]models.ImageReference(nil), list...))
	}
}

// Close stops the watch goroutine and waits for it to exit. The backend is left open.
func (s *PersistedStore) Close() {
	s.subMu.Lock()
	stop, done := s.stop, s.done
	s.subMu.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done

	s.subMu.Lock()
	s.stop, s.done = nil, nil
	s.subMu.Unlock()
}
