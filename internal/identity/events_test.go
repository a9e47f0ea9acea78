package identity

import "testing"

func TestBroadcasterDeliversToAllListeners(t *testing.T) {
	b := NewBroadcaster()

	var got []Event
	b.Subscribe(func(ev Event) { got = append(got, ev) })
	b.Subscribe(func(ev Event) { got = append(got, ev) })

	b.Publish(Event{Kind: EventSignedIn, UserID: "user-1"})

	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	for _, ev := range got {
		if ev.Kind != EventSignedIn || ev.UserID != "user-1" {
			t.Errorf("event = %+v, want signed-in for user-1", ev)
		}
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	var count int
	unsubscribe := b.Subscribe(func(Event) { count++ })

	b.Publish(Event{Kind: EventSignedOut, UserID: "user-1"})
	unsubscribe()
	b.Publish(Event{Kind: EventSignedOut, UserID: "user-1"})

	if count != 1 {
		t.Errorf("listener fired %d times, want 1", count)
	}
}

func TestLocalPart(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice"},
		{"bob.smith@mail.example.com", "bob.smith"},
		{"noatsign", "noatsign"},
		{"@leading", "@leading"},
	}
	for _, tt := range tests {
		if got := localPart(tt.email); got != tt.want {
			t.Errorf("localPart(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
