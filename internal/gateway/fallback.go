package gateway

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwhit/musicvault/internal/localstore"
	"github.com/cwhit/musicvault/internal/playlist"
)

// FallbackStore implements playlist.Store on the local fallback store.
// The whole track list is persisted as one blob after every change; song
// bytes live in the in-memory blob cache and do not survive a restart.
type FallbackStore struct {
	local  *localstore.Store
	blobs  *BlobCache
	userID string

	mu     sync.Mutex
	mirror []playlist.Track
	loaded bool
}

// NewFallbackStore creates a FallbackStore scoped to the given user.
func NewFallbackStore(local *localstore.Store, blobs *BlobCache, userID string) *FallbackStore {
	return &FallbackStore{local: local, blobs: blobs, userID: userID}
}

// Load reads the persisted snapshot. It is read at most once per session
// activation; later calls serve the in-memory mirror.
func (s *FallbackStore) Load(_ context.Context) ([]playlist.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		var tracks []playlist.Track
		if _, err := s.local.Load(s.userID, &tracks); err != nil {
			return nil, err
		}
		s.mirror = tracks
		s.loaded = true
	}

	out := make([]playlist.Track, len(s.mirror))
	copy(out, s.mirror)
	return out, nil
}

// Insert assigns locally generated identity and timestamps, then rewrites
// the snapshot.
func (s *FallbackStore) Insert(_ context.Context, track *playlist.Track) error {
	now := time.Now()
	track.ID = uuid.New().String()
	track.UserID = s.userID
	track.CreatedAt = now
	track.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = append(s.mirror, *track)
	return s.saveLocked()
}

// Remove drops the track from the snapshot and releases its cached blob.
func (s *FallbackStore) Remove(_ context.Context, track playlist.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.mirror {
		if t.ID == track.ID {
			s.mirror = append(s.mirror[:i], s.mirror[i+1:]...)
			if err := s.saveLocked(); err != nil {
				return err
			}
			if IsHandle(track.FilePath) {
				s.blobs.Delete(track.FilePath)
			}
			return nil
		}
	}
	return playlist.ErrTrackNotFound
}

// Rename updates the track's title in the snapshot.
func (s *FallbackStore) Rename(_ context.Context, id, title string) error {
	return s.updateTrack(id, func(t *playlist.Track) { t.Title = title })
}

// SetDuration records the track's duration in the snapshot.
func (s *FallbackStore) SetDuration(_ context.Context, id string, seconds int) error {
	return s.updateTrack(id, func(t *playlist.Track) { t.Duration = seconds })
}

func (s *FallbackStore) updateTrack(id string, apply func(*playlist.Track)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.mirror {
		if s.mirror[i].ID == id {
			apply(&s.mirror[i])
			s.mirror[i].UpdatedAt = time.Now()
			return s.saveLocked()
		}
	}
	return playlist.ErrTrackNotFound
}

// SavePositions replaces the snapshot wholesale with the given order.
func (s *FallbackStore) SavePositions(_ context.Context, snapshot []playlist.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = make([]playlist.Track, len(snapshot))
	copy(s.mirror, snapshot)
	return s.saveLocked()
}

// TrackURL returns the serve path for the track's transient blob handle.
func (s *FallbackStore) TrackURL(track playlist.Track) string {
	if IsHandle(track.FilePath) {
		return URL(track.FilePath)
	}
	// A durable key persisted before the schema went missing; nothing to
	// serve it with in fallback mode.
	return ""
}

// Prepare stashes the file's bytes in the blob cache and returns the
// transient handle used as the track's storage locator.
func (s *FallbackStore) Prepare(_ context.Context, fileName string, r io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", fileName, err)
	}
	return s.blobs.Put(s.userID, data, contentType), nil
}

// saveLocked persists the mirror. Caller must hold mu.
func (s *FallbackStore) saveLocked() error {
	return s.local.Save(s.userID, s.mirror)
}
