package web

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webfs "github.com/cwhit/musicvault/web"
)

func loadTemplates(t *testing.T) *Templates {
	t.Helper()
	sub, err := fs.Sub(webfs.TemplatesFS, "templates")
	require.NoError(t, err)
	templates, err := NewTemplates(sub)
	require.NoError(t, err)
	return templates
}

func TestRenderLoginPage(t *testing.T) {
	templates := loadTemplates(t)

	var buf strings.Builder
	err := templates.Render(&buf, "login", AuthPageData{
		PageData: PageData{Title: "MusicVault"},
		Email:    "alice@example.com",
		Error:    "Invalid email or password",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "Invalid email or password")
}

func TestRenderDashboardPage(t *testing.T) {
	templates := loadTemplates(t)

	data := DashboardPageData{
		PageData: PageData{
			Title: "My Music",
			User:  &UserData{ID: "user-1", Email: "alice@example.com", Name: "alice"},
			Flash: &FlashMessage{Type: "error", Message: "Failed to upload bad.mp3"},
		},
		Tracks: []TrackData{
			{
				ID:       "song-1",
				Title:    "First Song",
				FileName: "first.mp3",
				URL:      "https://songs.test/user-1/first.mp3",
				Duration: 185,
				FileSize: 3 << 20,
				AddedAt:  time.Now(),
			},
		},
	}

	var buf strings.Builder
	require.NoError(t, templates.Render(&buf, "dashboard", data))

	out := buf.String()
	assert.Contains(t, out, "First Song")
	assert.Contains(t, out, "3:05")
	assert.Contains(t, out, "Sync Order")
	assert.Contains(t, out, "Failed to upload bad.mp3")
}

func TestRenderUnknownPage(t *testing.T) {
	templates := loadTemplates(t)

	var buf strings.Builder
	err := templates.Render(&buf, "no-such-page", nil)
	assert.Error(t, err)
}
