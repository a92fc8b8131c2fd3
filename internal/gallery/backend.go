package gallery

import (
	"context"
	"sync"
)

// Backend is durable key/value storage for the gallery list.
type Backend interface {
	// Read returns the raw value under key; ok is false when it was never written.
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Write replaces the value under key.
	Write(ctx context.Context, key string, data []byte) error

	// Watch signals each change made by another execution context. The channel closes when ctx is done.
	// Signals may coalesce.
	Watch(ctx context.Context) <-chan struct{}
}

// MemoryBackend is an in-process [Backend].
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[chan struct{}]struct{}
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string][]byte),
		watchers: make(map[chan struct{}]struct{}),
	}
}

func (b *MemoryBackend) Read(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBackend) Write(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = append([]byte(nil), data...)
	return nil
}

// WriteExternal stores data as if another execution context wrote it and signals all watchers.
func (b *MemoryBackend) WriteExternal(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[key] = append([]byte(nil), data...)
	for ch := range b.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *MemoryBackend) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}
