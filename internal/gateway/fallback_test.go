package gateway

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwhit/musicvault/internal/localstore"
	"github.com/cwhit/musicvault/internal/playlist"
)

func openFallback(t *testing.T, path, userID string) (*FallbackStore, *localstore.Store) {
	t.Helper()
	local, err := localstore.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { local.Close() })
	return NewFallbackStore(local, NewBlobCache(), userID), local
}

func TestFallbackSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")
	store, local := openFallback(t, path, "user-1")
	ctx := context.Background()

	a := playlist.Track{Title: "First", FileName: "first.mp3", MimeType: "audio/mpeg"}
	b := playlist.Track{Title: "Second", FileName: "second.mp3", MimeType: "audio/mpeg"}
	if err := store.Insert(ctx, &a); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Insert(ctx, &b); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Remove(ctx, a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// Simulated reload: a fresh store over the same database.
	reloaded := NewFallbackStore(local, NewBlobCache(), "user-1")
	tracks, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("Load() returned %d tracks, want 1", len(tracks))
	}
	if tracks[0].Title != "Second" {
		t.Errorf("Load() track = %q, want %q", tracks[0].Title, "Second")
	}
}

func TestFallbackInsertAssignsIdentity(t *testing.T) {
	store, _ := openFallback(t, filepath.Join(t.TempDir(), "fallback.db"), "user-1")

	track := playlist.Track{Title: "Song", FileName: "song.mp3"}
	if err := store.Insert(context.Background(), &track); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if track.ID == "" {
		t.Error("Insert() did not assign an ID")
	}
	if track.UserID != "user-1" {
		t.Errorf("Insert() user = %q, want user-1", track.UserID)
	}
	if track.CreatedAt.IsZero() || track.UpdatedAt.IsZero() {
		t.Error("Insert() did not assign timestamps")
	}
}

func TestFallbackSavePositionsReplacesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")
	store, local := openFallback(t, path, "user-1")
	ctx := context.Background()

	a := playlist.Track{Title: "a"}
	b := playlist.Track{Title: "b"}
	if err := store.Insert(ctx, &a); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Insert(ctx, &b); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	b.Position, a.Position = 0, 1
	if err := store.SavePositions(ctx, []playlist.Track{b, a}); err != nil {
		t.Fatalf("SavePositions() error = %v", err)
	}

	reloaded := NewFallbackStore(local, NewBlobCache(), "user-1")
	tracks, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tracks[0].Title != "b" || tracks[1].Title != "a" {
		t.Errorf("Load() order = [%s %s], want [b a]", tracks[0].Title, tracks[1].Title)
	}
}

func TestFallbackPrepareAndBlobLifecycle(t *testing.T) {
	blobs := NewBlobCache()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "fallback.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer local.Close()
	store := NewFallbackStore(local, blobs, "user-1")
	ctx := context.Background()

	handle, err := store.Prepare(ctx, "song.mp3", strings.NewReader("mp3-bytes"), 9, "audio/mpeg")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !IsHandle(handle) {
		t.Fatalf("Prepare() returned %q, want a mem:// handle", handle)
	}

	data, contentType, ok := blobs.Get("user-1", handle)
	if !ok {
		t.Fatal("blob not found after Prepare")
	}
	if string(data) != "mp3-bytes" || contentType != "audio/mpeg" {
		t.Errorf("blob = (%q, %q), want (mp3-bytes, audio/mpeg)", data, contentType)
	}

	track := playlist.Track{Title: "Song", FilePath: handle}
	if err := store.Insert(ctx, &track); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := store.TrackURL(track); got != URL(handle) {
		t.Errorf("TrackURL() = %q, want %q", got, URL(handle))
	}

	if err := store.Remove(ctx, track); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, _, ok := blobs.Get("user-1", handle); ok {
		t.Error("blob still present after Remove")
	}
}
