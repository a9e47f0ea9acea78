package gateway

import (
	"context"
	"errors"
	"io"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/playlist"
)

// Backend rejections surfaced to the playlist machine. The gateway has
// already logged the underlying cause.
var (
	errInsertRejected    = errors.New("backend rejected song insert")
	errDeleteRejected    = errors.New("backend rejected song delete")
	errUpdateRejected    = errors.New("backend rejected song update")
	errPositionsRejected = errors.New("backend rejected position update")
	errUploadRejected    = errors.New("backend rejected file upload")
)

// songBackend is the slice of the Gateway the remote store drives.
type songBackend interface {
	ListSongs(ctx context.Context, userID string) []db.Song
	AddSong(ctx context.Context, song *db.Song) bool
	DeleteSong(ctx context.Context, id string) bool
	UpdateSongTitle(ctx context.Context, id, title string) bool
	UpdateSongDuration(ctx context.Context, id string, seconds int) bool
	UpdatePositions(ctx context.Context, updates []db.PositionUpdate) bool
	UploadFile(ctx context.Context, userID, fileName string, r io.Reader, size int64, contentType string) string
	DeleteFile(ctx context.Context, key string) bool
	SongURL(key string) string
}

// RemoteStore adapts the Gateway to the playlist.Store interface for one
// user's session.
type RemoteStore struct {
	gw     songBackend
	userID string
}

// NewRemoteStore creates a RemoteStore scoped to the given user.
func NewRemoteStore(gw *Gateway, userID string) *RemoteStore {
	return &RemoteStore{gw: gw, userID: userID}
}

// Load returns the user's persisted tracks in position order.
func (s *RemoteStore) Load(ctx context.Context) ([]playlist.Track, error) {
	songs := s.gw.ListSongs(ctx, s.userID)
	tracks := make([]playlist.Track, len(songs))
	for i, song := range songs {
		tracks[i] = toTrack(song)
	}
	return tracks, nil
}

// Insert persists a new track row. The blob referenced by FilePath has
// already been uploaded by Prepare.
func (s *RemoteStore) Insert(ctx context.Context, track *playlist.Track) error {
	// Intake builds tracks without an owner; the row is scoped here.
	track.UserID = s.userID
	song := toSong(*track)
	if !s.gw.AddSong(ctx, &song) {
		return errInsertRejected
	}
	*track = toTrack(song)
	return nil
}

// Remove deletes the song row and then its underlying blob.
func (s *RemoteStore) Remove(ctx context.Context, track playlist.Track) error {
	if !s.gw.DeleteSong(ctx, track.ID) {
		return errDeleteRejected
	}
	// Row is gone; blob removal is best-effort (already logged).
	s.gw.DeleteFile(ctx, track.FilePath)
	return nil
}

// Rename updates the song row's display title.
func (s *RemoteStore) Rename(ctx context.Context, id, title string) error {
	if !s.gw.UpdateSongTitle(ctx, id, title) {
		return errUpdateRejected
	}
	return nil
}

// SetDuration records the song row's duration.
func (s *RemoteStore) SetDuration(ctx context.Context, id string, seconds int) error {
	if !s.gw.UpdateSongDuration(ctx, id, seconds) {
		return errUpdateRejected
	}
	return nil
}

// SavePositions persists the snapshot's positions, one update per track.
func (s *RemoteStore) SavePositions(ctx context.Context, snapshot []playlist.Track) error {
	updates := make([]db.PositionUpdate, len(snapshot))
	for i, track := range snapshot {
		updates[i] = db.PositionUpdate{ID: track.ID, Position: track.Position}
	}
	if !s.gw.UpdatePositions(ctx, updates) {
		return errPositionsRejected
	}
	return nil
}

// TrackURL derives the public playback URL from the storage key.
func (s *RemoteStore) TrackURL(track playlist.Track) string {
	return s.gw.SongURL(track.FilePath)
}

// Prepare uploads the file's bytes to the songs bucket and returns the
// storage key for the track row.
func (s *RemoteStore) Prepare(ctx context.Context, fileName string, r io.Reader, size int64, contentType string) (string, error) {
	key := s.gw.UploadFile(ctx, s.userID, fileName, r, size, contentType)
	if key == "" {
		return "", errUploadRejected
	}
	return key, nil
}

func toTrack(song db.Song) playlist.Track {
	track := playlist.Track{
		ID:        song.ID,
		UserID:    song.UserID,
		Title:     song.Title,
		FileName:  song.FileName,
		FilePath:  song.FilePath,
		Duration:  song.Duration,
		MimeType:  song.MimeType,
		Position:  song.Position,
		CreatedAt: song.CreatedAt,
		UpdatedAt: song.UpdatedAt,
	}
	if song.FileSize != nil {
		track.FileSize = *song.FileSize
	}
	return track
}

func toSong(track playlist.Track) db.Song {
	song := db.Song{
		ID:        track.ID,
		UserID:    track.UserID,
		Title:     track.Title,
		FileName:  track.FileName,
		FilePath:  track.FilePath,
		Duration:  track.Duration,
		MimeType:  track.MimeType,
		Position:  track.Position,
		CreatedAt: track.CreatedAt,
		UpdatedAt: track.UpdatedAt,
	}
	if track.FileSize > 0 {
		size := track.FileSize
		song.FileSize = &size
	}
	return song
}
