package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

func openTestBolt(t *testing.T, path string) *Bolt {
	t.Helper()
	db, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	return db
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) core.KeyValueStore{
		"bolt": func(t *testing.T) core.KeyValueStore {
			db := openTestBolt(t, filepath.Join(t.TempDir(), "test.db"))
			t.Cleanup(func() { db.Close() })
			return db
		},
		"memory": func(*testing.T) core.KeyValueStore { return NewMemory() },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			kv := open(t)

			if _, err := kv.Get("watchlist"); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := kv.Set("watchlist", []byte(`[1]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set("watchlist", []byte(`[1,2]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, err := kv.Get("watchlist")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `[1,2]` {
				t.Errorf("got %q, want [1,2]", got)
			}

			// returned slices are copies
			got[0] = 'x'
			again, _ := kv.Get("watchlist")
			if string(again) != `[1,2]` {
				t.Errorf("stored value was mutated through returned slice: %q", again)
			}
		})
	}
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moviecenter.db")

	db := openTestBolt(t, path)
	if err := db.Set("watchlist", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestBolt(t, path)
	defer reopened.Close()

	got, err := reopened.Get("watchlist")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `{"version":1}` {
		t.Errorf("got %q", got)
	}
}
