package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KVRepository reads and writes named slots in the kv_slots table.
type KVRepository struct {
	db Querier
}

// NewKVRepository creates a KVRepository over db.
func NewKVRepository(db Querier) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key; ok is false when the slot does not exist.
func (r *KVRepository) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var raw string
	err = r.db.QueryRowContext(ctx, "SELECT value FROM kv_slots WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return []byte(raw), true, nil
}

// Set writes value under key, replacing any previous value.
func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM kv_slots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}
