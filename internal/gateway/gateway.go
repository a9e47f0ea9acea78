// Package gateway wraps the remote database and object storage behind
// the lenient request/response surface the web layer consumes: every
// operation is independently fallible and independently logged, with
// failures converted to empty/nil/false rather than propagated.
package gateway

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/storage"
)

// Gateway issues CRUD operations against the profiles, songs and
// playlists collections and blob operations against the songs bucket.
type Gateway struct {
	db      *db.DB
	storage *storage.Store
	logger  *log.Logger
}

// New creates a Gateway.
func New(database *db.DB, store *storage.Store, logger *log.Logger) *Gateway {
	return &Gateway{
		db:      database,
		storage: store,
		logger:  logger.With("component", "gateway"),
	}
}

// SchemaMissing reports whether the backing schema has been determined
// absent. This is the one classified failure that changes behavior:
// callers switch to the local fallback store.
func (g *Gateway) SchemaMissing(ctx context.Context) bool {
	err := g.db.CheckSchema(ctx)
	if errors.Is(err, db.ErrSchemaMissing) {
		g.logger.Warn("database schema not provisioned, using local fallback")
		return true
	}
	return false
}

// GetProfile fetches a profile by identity. Absent or failed both yield
// nil.
func (g *Gateway) GetProfile(ctx context.Context, id string) *db.Profile {
	profile, err := g.db.Profiles().Get(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			g.logger.Error("fetching profile", "id", id, "err", err)
		}
		return nil
	}
	return profile
}

// CreateProfile inserts a profile, filling server-assigned fields.
func (g *Gateway) CreateProfile(ctx context.Context, profile *db.Profile) bool {
	if err := g.db.Profiles().Create(ctx, profile); err != nil {
		g.logger.Error("creating profile", "id", profile.ID, "err", err)
		return false
	}
	return true
}

// CreateDefaultPlaylist provisions the default playlist for a new
// profile. Best-effort; profile creation does not depend on it.
func (g *Gateway) CreateDefaultPlaylist(ctx context.Context, userID string) bool {
	if _, err := g.db.Playlists().GetDefault(ctx, userID); err == nil {
		return true
	}
	playlist := &db.Playlist{
		UserID:    userID,
		Name:      "My Music",
		IsDefault: true,
	}
	if err := g.db.Playlists().Create(ctx, playlist); err != nil {
		g.logger.Error("creating default playlist", "user", userID, "err", err)
		return false
	}
	return true
}

// ListSongs fetches a user's songs ordered by position ascending.
// Failures yield an empty list.
func (g *Gateway) ListSongs(ctx context.Context, userID string) []db.Song {
	songs, err := g.db.Songs().ListByUser(ctx, userID)
	if err != nil {
		g.logger.Error("fetching songs", "user", userID, "err", err)
		return nil
	}
	return songs
}

// AddSong inserts a song row, filling server-assigned fields.
func (g *Gateway) AddSong(ctx context.Context, song *db.Song) bool {
	if err := g.db.Songs().Create(ctx, song); err != nil {
		g.logger.Error("adding song", "title", song.Title, "err", err)
		return false
	}
	return true
}

// DeleteSong deletes a song row by identifier.
func (g *Gateway) DeleteSong(ctx context.Context, id string) bool {
	if err := g.db.Songs().Delete(ctx, id); err != nil {
		g.logger.Error("deleting song", "id", id, "err", err)
		return false
	}
	return true
}

// UpdateSongTitle updates a song's display title.
func (g *Gateway) UpdateSongTitle(ctx context.Context, id, title string) bool {
	if err := g.db.Songs().UpdateTitle(ctx, id, title); err != nil {
		g.logger.Error("updating song title", "id", id, "err", err)
		return false
	}
	return true
}

// UpdateSongDuration records a song's duration in seconds.
func (g *Gateway) UpdateSongDuration(ctx context.Context, id string, seconds int) bool {
	if err := g.db.Songs().UpdateDuration(ctx, id, seconds); err != nil {
		g.logger.Error("updating song duration", "id", id, "err", err)
		return false
	}
	return true
}

// UpdatePositions issues one position update per pair and waits for all.
// Success means every update succeeded; partial failure is not rolled
// back.
func (g *Gateway) UpdatePositions(ctx context.Context, updates []db.PositionUpdate) bool {
	if err := g.db.Songs().UpdatePositions(ctx, updates); err != nil {
		g.logger.Error("updating song positions", "count", len(updates), "err", err)
		return false
	}
	return true
}

// UploadFile stores a blob under a key derived from the owner and the
// current time, returning the storage key or "" on failure.
func (g *Gateway) UploadFile(ctx context.Context, userID, fileName string, r io.Reader, size int64, contentType string) string {
	key := storage.DeriveKey(userID, fileName, time.Now())
	key, err := g.storage.Upload(ctx, key, r, size, contentType)
	if err != nil {
		g.logger.Error("uploading file", "name", fileName, "err", err)
		return ""
	}
	return key
}

// DeleteFile removes a blob by storage key.
func (g *Gateway) DeleteFile(ctx context.Context, key string) bool {
	if err := g.storage.Remove(ctx, key); err != nil {
		g.logger.Error("deleting file", "key", key, "err", err)
		return false
	}
	return true
}

// SongURL derives the public retrieval URL for a storage key.
func (g *Gateway) SongURL(key string) string {
	return g.storage.PublicURL(key)
}
