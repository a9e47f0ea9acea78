package gateway

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/playlist"
)

// fakeBackend records the calls a RemoteStore makes.
type fakeBackend struct {
	added     []db.Song
	rejectAdd bool
}

func (f *fakeBackend) ListSongs(context.Context, string) []db.Song { return nil }

func (f *fakeBackend) AddSong(_ context.Context, song *db.Song) bool {
	if f.rejectAdd {
		return false
	}
	if song.ID == "" {
		song.ID = "song-1"
	}
	f.added = append(f.added, *song)
	return true
}

func (f *fakeBackend) DeleteSong(context.Context, string) bool              { return true }
func (f *fakeBackend) UpdateSongTitle(context.Context, string, string) bool { return true }
func (f *fakeBackend) UpdateSongDuration(context.Context, string, int) bool { return true }
func (f *fakeBackend) UpdatePositions(context.Context, []db.PositionUpdate) bool {
	return true
}
func (f *fakeBackend) UploadFile(_ context.Context, userID, fileName string, _ io.Reader, _ int64, _ string) string {
	return userID + "/" + fileName
}
func (f *fakeBackend) DeleteFile(context.Context, string) bool { return true }
func (f *fakeBackend) SongURL(key string) string               { return "https://songs.test/" + key }

func TestRemoteInsertAssignsOwner(t *testing.T) {
	backend := &fakeBackend{}
	store := &RemoteStore{gw: backend, userID: "user-1"}

	track := playlist.Track{Title: "Song", FileName: "song.mp3", FilePath: "user-1/song.mp3"}
	if err := store.Insert(context.Background(), &track); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if len(backend.added) != 1 {
		t.Fatalf("AddSong called %d times, want 1", len(backend.added))
	}
	if got := backend.added[0].UserID; got != "user-1" {
		t.Errorf("inserted song UserID = %q, want %q", got, "user-1")
	}
	if track.UserID != "user-1" {
		t.Errorf("track UserID = %q, want %q", track.UserID, "user-1")
	}
	if track.ID == "" {
		t.Error("track not updated with assigned ID")
	}
}

func TestRemoteInsertRejected(t *testing.T) {
	store := &RemoteStore{gw: &fakeBackend{rejectAdd: true}, userID: "user-1"}

	track := playlist.Track{Title: "Song"}
	if err := store.Insert(context.Background(), &track); !errors.Is(err, errInsertRejected) {
		t.Fatalf("Insert() error = %v, want %v", err, errInsertRejected)
	}
}
