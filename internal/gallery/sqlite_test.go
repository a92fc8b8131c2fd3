package gallery

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

// openFileDB opens a migrated database at path, as a separate process would.
func openFileDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newSQLiteStore(t *testing.T, db *sql.DB) *PersistedStore {
	t.Helper()

	backend, err := NewSQLiteBackend(context.Background(), db, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	store := NewStore(backend, "", nil)
	store.Start(context.Background())
	t.Cleanup(store.Close)
	return store
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := newSQLiteStore(t, openFileDB(t, filepath.Join(t.TempDir(), "gallery.db")))

		if got := store.Load(ctx); len(got) != 0 {
			t.Fatalf("expected empty gallery, got %v", got)
		}

		for _, ref := range []models.ImageReference{"https://x/a.jpg", "https://x/b.jpg"} {
			if _, err := store.Append(ctx, ref); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		got := store.Load(ctx)
		if len(got) != 2 || got[1] != "https://x/b.jpg" {
			t.Errorf("unexpected gallery %v", got)
		}
	})

	t.Run("other connections notify, own writes do not", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gallery.db")
		local := newSQLiteStore(t, openFileDB(t, path))
		remote := newSQLiteStore(t, openFileDB(t, path))

		localChanges := make(chan []models.ImageReference, 8)
		remoteChanges := make(chan []models.ImageReference, 8)
		local.Subscribe(func(list []models.ImageReference) { localChanges <- list })
		remote.Subscribe(func(list []models.ImageReference) { remoteChanges <- list })

		if _, err := local.Append(ctx, "https://x/a.jpg"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		list := waitFor(t, remoteChanges)
		if len(list) != 1 || list[0] != "https://x/a.jpg" {
			t.Errorf("remote saw %v", list)
		}
		expectSilence(t, localChanges, 100*time.Millisecond)

		if got := remote.Load(ctx); len(got) != 1 {
			t.Errorf("remote Load() = %v", got)
		}
	})
}
