// Package playback tracks which single track is currently playing and
// advances through the ordered list as tracks finish.
package playback

import "sync"

// Coordinator holds at most one "currently playing" track identifier.
// It reads the ordered list but never mutates persisted state.
type Coordinator struct {
	mu      sync.Mutex
	current string
}

// New creates a Coordinator with nothing playing.
func New() *Coordinator {
	return &Coordinator{}
}

// Current returns the currently playing track id, or "" when nothing is
// playing.
func (c *Coordinator) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Toggle plays the given track, or pauses it if it is already playing.
// Selecting a new track implicitly stops the previous one.
func (c *Coordinator) Toggle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == id {
		c.current = ""
		return
	}
	c.current = id
}

// TrackEnded advances to the next track in the given order when the
// ended track is the current selection. At the end of the list the
// selection is cleared; there is no wraparound.
func (c *Coordinator) TrackEnded(id string, order []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != id {
		return
	}
	for i, trackID := range order {
		if trackID == id {
			if i+1 < len(order) {
				c.current = order[i+1]
			} else {
				c.current = ""
			}
			return
		}
	}
	c.current = ""
}

// ClearIf clears the selection when the given track is currently
// playing, e.g. after that track was deleted.
func (c *Coordinator) ClearIf(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == id {
		c.current = ""
	}
}
