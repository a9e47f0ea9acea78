package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwhit/musicvault/internal/db"
)

func testAccount() *db.Account {
	return &db.Account{ID: "user-1", Email: "alice@example.com", Name: "alice"}
}

func TestSessionRoundtrip(t *testing.T) {
	store := NewSessionStore(0)

	session, err := store.Create(context.Background(), testAccount())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	got := store.Get(context.Background(), session.ID)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestSessionExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	session, err := store.Create(context.Background(), testAccount())
	require.NoError(t, err)

	session.CreatedAt = session.CreatedAt.Add(-time.Minute)
	assert.Nil(t, store.Get(context.Background(), session.ID))
}

func TestSessionDeleteForUser(t *testing.T) {
	store := NewSessionStore(0)
	ctx := context.Background()

	s1, err := store.Create(ctx, testAccount())
	require.NoError(t, err)
	s2, err := store.Create(ctx, testAccount())
	require.NoError(t, err)
	other, err := store.Create(ctx, &db.Account{ID: "user-2", Email: "bob@example.com"})
	require.NoError(t, err)

	store.DeleteForUser(ctx, "user-1")

	assert.Nil(t, store.Get(ctx, s1.ID))
	assert.Nil(t, store.Get(ctx, s2.ID))
	assert.NotNil(t, store.Get(ctx, other.ID))
}

func TestSessionCookieLifecycle(t *testing.T) {
	store := NewSessionStore(0)

	session, err := store.Create(context.Background(), testAccount())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	store.SetCookie(w, session)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	got := store.GetFromRequest(r)
	require.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)

	cleared := httptest.NewRecorder()
	store.ClearCookie(cleared)
	cookies := cleared.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLoginLimiterThrottlesPerIP(t *testing.T) {
	l := newLoginLimiter()

	allowed := 0
	for i := 0; i < 20; i++ {
		if l.allow("203.0.113.7:51234") {
			allowed++
		}
	}
	assert.Less(t, allowed, 20, "burst should be capped")
	assert.True(t, l.allow("198.51.100.2:9000"), "other clients are unaffected")
}
