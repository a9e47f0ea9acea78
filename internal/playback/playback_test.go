package playback

import "testing"

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		toggles []string
		want    string
	}{
		{name: "play one", toggles: []string{"a"}, want: "a"},
		{name: "toggle twice pauses", toggles: []string{"a", "a"}, want: ""},
		{name: "switch stops previous", toggles: []string{"a", "b"}, want: "b"},
		{name: "switch then pause", toggles: []string{"a", "b", "b"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, id := range tt.toggles {
				c.Toggle(id)
			}
			if got := c.Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackEnded(t *testing.T) {
	order := []string{"a", "b", "c"}

	tests := []struct {
		name    string
		playing string
		ended   string
		want    string
	}{
		{name: "advances to next", playing: "a", ended: "a", want: "b"},
		{name: "last track clears", playing: "c", ended: "c", want: ""},
		{name: "mismatched end ignored", playing: "b", ended: "a", want: "b"},
		{name: "unknown track clears", playing: "x", ended: "x", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.Toggle(tt.playing)
			c.TrackEnded(tt.ended, order)
			if got := c.Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClearIf(t *testing.T) {
	c := New()
	c.Toggle("a")

	c.ClearIf("b")
	if got := c.Current(); got != "a" {
		t.Errorf("Current() = %q after ClearIf(other), want %q", got, "a")
	}

	c.ClearIf("a")
	if got := c.Current(); got != "" {
		t.Errorf("Current() = %q after ClearIf(current), want empty", got)
	}
}
