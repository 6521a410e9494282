package storage

import (
	"path/filepath"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := NewLocalStore(path)
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := store.Set("record", record{Name: "cue", Count: 3}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got record
	found, err := store.Get("record", &got)
	if err != nil || !found {
		t.Fatalf("Get() = found=%v err=%v", found, err)
	}
	if got.Name != "cue" || got.Count != 3 {
		t.Errorf("Get() = %+v", got)
	}

	// Values survive a reopen.
	reopened, err := NewLocalStore(path)
	if err != nil {
		t.Fatalf("NewLocalStore() reopen error: %v", err)
	}
	found, err = reopened.Get("record", &got)
	if err != nil || !found {
		t.Fatalf("Get() after reopen = found=%v err=%v", found, err)
	}
}

func TestLocalStoreMissingKey(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	var v map[string]any
	found, err := store.Get("absent", &v)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found {
		t.Error("Get() found a key that was never set")
	}
}

func TestLocalStoreDelete(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	var v string
	found, _ := store.Get("k", &v)
	if found {
		t.Error("Get() found a deleted key")
	}
}
