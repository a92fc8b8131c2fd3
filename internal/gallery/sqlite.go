package gallery

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imgmatch/internal/repositories"
	"github.com/desertthunder/imgmatch/internal/shared"
)

// SQLiteBackend stores values in the kv_slots table.
//
// All access goes through one pinned connection. sqlite bumps PRAGMA data_version on a connection only
// when another connection commits, so polling it detects other processes without reporting our own writes.
type SQLiteBackend struct {
	mu       sync.Mutex
	conn     *sql.Conn
	kv       *repositories.KVRepository
	interval time.Duration
	version  int64
	logger   *log.Logger
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend pins a connection from db and polls for external changes every interval.
//
// The pinned connection is held until [SQLiteBackend.Close], so db must allow at least one more
// connection for other users. The kv_slots table must already exist.
func NewSQLiteBackend(ctx context.Context, db *sql.DB, interval time.Duration, logger *log.Logger) (*SQLiteBackend, error) {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin gallery connection: %w", err)
	}

	b := &SQLiteBackend{
		conn:     conn,
		kv:       repositories.NewKVRepository(conn),
		interval: interval,
		logger:   shared.WithLogger(logger, "component", "gallery.sqlite"),
	}

	if b.version, err = b.dataVersion(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := b.conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}

func (b *SQLiteBackend) Read(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kv.Get(ctx, key)
}

func (b *SQLiteBackend) Write(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kv.Set(ctx, key, data)
}

// Watch polls data_version until ctx is done.
func (b *SQLiteBackend) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if b.changed(ctx) {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			}
		}
	}()

	return ch
}

func (b *SQLiteBackend) changed(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, err := b.dataVersion(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("gallery poll failed", "error", err)
		}
		return false
	}
	if v == b.version {
		return false
	}
	b.version = v
	return true
}

// Close releases the pinned connection.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}
