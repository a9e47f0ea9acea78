package localstore

import (
	"path/filepath"
	"testing"
)

type testTrack struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

func TestSaveAndLoad(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "fallback.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	in := []testTrack{
		{ID: "a", Title: "First", Position: 0},
		{ID: "b", Title: "Second", Position: 1},
	}
	if err := store.Save("user-1", in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out []testTrack
	ok, err := store.Load("user-1", &out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("Load() = %+v, want %+v", out, in)
	}
}

func TestLoadMissingUser(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "fallback.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	var out []testTrack
	ok, err := store.Load("nobody", &out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true for missing user, want false")
	}
	if out != nil {
		t.Errorf("Load() wrote %+v for missing user", out)
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "fallback.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.Save("user-1", []testTrack{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save("user-1", []testTrack{{ID: "b"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out []testTrack
	if _, err := store.Load("user-1", &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "b" {
		t.Errorf("Load() = %+v, want single track b", out)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "fallback.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.Save("user-1", []testTrack{{ID: "a"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out []testTrack
	ok, err := store.Load("user-2", &out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true for other user, want false")
	}
}
