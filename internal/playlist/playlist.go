// Package playlist holds the in-memory ordered track list and keeps it
// synchronized with whichever backing store is active.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Common errors.
var (
	ErrTrackNotFound = errors.New("track not found")
	ErrBadReorder    = errors.New("reorder is not a permutation of the current tracks")
)

// DefaultDebounce is the quiet period after the last edit before playlist
// positions are persisted.
const DefaultDebounce = 1 * time.Second

// syncTimeout bounds a single background position resync.
const syncTimeout = 30 * time.Second

// Track is one audio item in the ordered list.
type Track struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	Duration  int       `json:"duration"`
	FileSize  int64     `json:"file_size,omitempty"`
	MimeType  string    `json:"mime_type"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence capability behind the machine. The session
// resolver selects the implementation once (remote database or local
// fallback) and injects it here; the machine never re-checks availability.
type Store interface {
	// Load returns the persisted track list in position order.
	Load(ctx context.Context) ([]Track, error)

	// Insert persists a new track, filling server-assigned fields.
	Insert(ctx context.Context, track *Track) error

	// Remove deletes a track and, where applicable, its underlying blob.
	Remove(ctx context.Context, track Track) error

	// SavePositions persists the full ordered snapshot. Positions in the
	// snapshot are dense (0..len-1).
	SavePositions(ctx context.Context, snapshot []Track) error

	// Rename persists a new display title for a track.
	Rename(ctx context.Context, id, title string) error

	// SetDuration persists a track's duration in seconds, reported once
	// playback metadata becomes available.
	SetDuration(ctx context.Context, id string, seconds int) error

	// TrackURL derives the playable URL for a track. Pure; never stored.
	TrackURL(track Track) string
}

// Machine owns the ordered in-memory track list for one session. It is
// the single mutable source of truth while the session is active; the
// backing store holds the last persisted snapshot.
type Machine struct {
	store  Store
	logger *log.Logger

	mu       sync.Mutex
	tracks   []Track
	debounce time.Duration
	timer    *time.Timer
	closed   bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithDebounce overrides the debounce interval. Used by tests.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) {
		m.debounce = d
	}
}

// New creates a Machine backed by the given store.
func New(store Store, logger *log.Logger, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load populates the machine from the backing store. A load failure
// leaves the machine empty rather than failing session resolution.
func (m *Machine) Load(ctx context.Context) {
	tracks, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("loading tracks, continuing with empty list", "err", err)
		tracks = nil
	}

	m.mu.Lock()
	m.tracks = tracks
	m.mu.Unlock()
}

// Tracks returns a copy of the current ordered track list.
func (m *Machine) Tracks() []Track {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// TrackIDs returns the identifiers of the current order.
func (m *Machine) TrackIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(m.tracks))
	for i, t := range m.tracks {
		ids[i] = t.ID
	}
	return ids
}

// Count returns the number of tracks.
func (m *Machine) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}

// TrackURL derives the playable URL for a track.
func (m *Machine) TrackURL(track Track) string {
	return m.store.TrackURL(track)
}

// Append inserts a track at the end of the list, assigning it the next
// position, and persists it through the active store.
func (m *Machine) Append(ctx context.Context, track Track) (Track, error) {
	m.mu.Lock()
	track.Position = len(m.tracks)
	m.mu.Unlock()

	if err := m.store.Insert(ctx, &track); err != nil {
		return Track{}, fmt.Errorf("persisting track: %w", err)
	}

	m.mu.Lock()
	m.tracks = append(m.tracks, track)
	m.scheduleSyncLocked()
	m.mu.Unlock()

	return track, nil
}

// Remove deletes the track with the given id from the store and from
// memory. Remaining positions are not renumbered; a gap can persist until
// the next full resync.
func (m *Machine) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := -1
	for i, t := range m.tracks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrTrackNotFound
	}
	track := m.tracks[idx]
	m.mu.Unlock()

	if err := m.store.Remove(ctx, track); err != nil {
		return fmt.Errorf("deleting track: %w", err)
	}

	m.mu.Lock()
	// Re-find: the list may have changed while the store call was in flight.
	for i, t := range m.tracks {
		if t.ID == id {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			break
		}
	}
	m.scheduleSyncLocked()
	m.mu.Unlock()

	return nil
}

// Reorder replaces the in-memory order with the given permutation of
// track identifiers and schedules a debounced position resync.
func (m *Machine) Reorder(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(ids) != len(m.tracks) {
		return ErrBadReorder
	}

	byID := make(map[string]Track, len(m.tracks))
	for _, t := range m.tracks {
		byID[t.ID] = t
	}

	reordered := make([]Track, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return ErrBadReorder
		}
		delete(byID, id)
		reordered = append(reordered, t)
	}

	m.tracks = reordered
	m.scheduleSyncLocked()
	return nil
}

// Rename updates a track's display title in the store and in memory.
// Titles do not affect ordering, so no resync is scheduled.
func (m *Machine) Rename(ctx context.Context, id, title string) error {
	if !m.has(id) {
		return ErrTrackNotFound
	}
	if err := m.store.Rename(ctx, id, title); err != nil {
		return fmt.Errorf("renaming track: %w", err)
	}

	m.mu.Lock()
	for i, t := range m.tracks {
		if t.ID == id {
			m.tracks[i].Title = title
			break
		}
	}
	m.mu.Unlock()
	return nil
}

// SetDuration records a track's duration once known. Best-effort
// metadata; ordering is unaffected.
func (m *Machine) SetDuration(ctx context.Context, id string, seconds int) error {
	if !m.has(id) {
		return ErrTrackNotFound
	}
	if err := m.store.SetDuration(ctx, id, seconds); err != nil {
		return fmt.Errorf("setting track duration: %w", err)
	}

	m.mu.Lock()
	for i, t := range m.tracks {
		if t.ID == id {
			m.tracks[i].Duration = seconds
			break
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Machine) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// SyncNow immediately persists the current positions, bypassing the
// debounce. Any pending debounced resync is cancelled first.
func (m *Machine) SyncNow(ctx context.Context) error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.store.SavePositions(ctx, snapshot); err != nil {
		return fmt.Errorf("saving positions: %w", err)
	}
	return nil
}

// Close cancels any pending resync. Pending order changes are dropped;
// callers wanting them persisted use SyncNow first.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// snapshotLocked copies the current list with dense positions assigned
// from the in-memory order. Caller must hold mu.
func (m *Machine) snapshotLocked() []Track {
	snapshot := make([]Track, len(m.tracks))
	copy(snapshot, m.tracks)
	for i := range snapshot {
		snapshot[i].Position = i
	}
	return snapshot
}

// scheduleSyncLocked (re)arms the debounce timer. A change inside the
// window cancels the pending resync outright, so only the final order
// after a burst of edits is persisted. Caller must hold mu.
func (m *Machine) scheduleSyncLocked() {
	if m.closed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, m.fireSync)
}

// fireSync runs a debounced resync. It reads current memory at fire
// time, not at schedule time, so edits landing after scheduling are
// still reflected.
func (m *Machine) fireSync() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := m.store.SavePositions(ctx, snapshot); err != nil {
		m.logger.Error("debounced position sync failed", "err", err)
	}
}
