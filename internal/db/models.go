package db

import "time"

// Account holds the credentials record for an authenticated user.
// Accounts belong to the authentication boundary; application data hangs
// off the Profile with the same identifier.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	ConfirmedAt  *time.Time // nullable
	CreatedAt    time.Time
}

// Confirmed reports whether the account's email address has been confirmed.
func (a *Account) Confirmed() bool {
	return a.ConfirmedAt != nil
}

// Profile represents the persisted identity record for a user.
type Profile struct {
	ID        string
	Email     string
	Name      *string // nullable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Song represents one uploaded audio item with its playlist position.
type Song struct {
	ID        string
	UserID    string
	Title     string
	FileName  string
	FilePath  string
	Duration  int    // seconds, 0 = unknown
	FileSize  *int64 // nullable
	MimeType  string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Playlist represents a grouping of songs. A default playlist is
// provisioned alongside each new profile.
type Playlist struct {
	ID          string
	UserID      string
	Name        string
	Description *string // nullable
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents a persisted login session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PositionUpdate pairs a song identifier with its new playlist position.
type PositionUpdate struct {
	ID       string
	Position int
}
