package storage

import (
	"testing"
	"time"
)

func TestDeriveKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name     string
		userID   string
		fileName string
		want     string
	}{
		{
			name:     "mp3 file",
			userID:   "user-1",
			fileName: "song.mp3",
			want:     "user-1/1700000000000.mp3",
		},
		{
			name:     "uppercase extension kept",
			userID:   "user-2",
			fileName: "TRACK.MP3",
			want:     "user-2/1700000000000.MP3",
		},
		{
			name:     "dots in name use last extension",
			userID:   "user-3",
			fileName: "my.favorite.song.mp3",
			want:     "user-3/1700000000000.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey(tt.userID, tt.fileName, now)
			if got != tt.want {
				t.Errorf("DeriveKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name       string
		publicBase string
		bucket     string
		key        string
		want       string
	}{
		{
			name:       "plain base",
			publicBase: "http://localhost:9000",
			bucket:     "songs",
			key:        "user-1/1700000000000.mp3",
			want:       "http://localhost:9000/songs/user-1/1700000000000.mp3",
		},
		{
			name:       "trailing slash trimmed by New",
			publicBase: "https://cdn.example.com",
			bucket:     "songs",
			key:        "u/1.mp3",
			want:       "https://cdn.example.com/songs/u/1.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{bucket: tt.bucket, publicBase: tt.publicBase}
			if got := s.PublicURL(tt.key); got != tt.want {
				t.Errorf("PublicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
