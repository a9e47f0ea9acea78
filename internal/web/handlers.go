package web

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/gateway"
	"github.com/cwhit/musicvault/internal/identity"
	"github.com/cwhit/musicvault/internal/playlist"
	"github.com/cwhit/musicvault/internal/upload"
)

// maxUploadBytes bounds one multipart upload request.
const maxUploadBytes = 100 << 20 // 100 MB

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	provider  *identity.Provider
	views     *Views
	sessions  SessionManager
	templates *Templates
	blobs     *gateway.BlobCache
	logins    *loginLimiter
	logger    *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(provider *identity.Provider, views *Views, sessions SessionManager, templates *Templates, blobs *gateway.BlobCache, logger *log.Logger) *Handlers {
	return &Handlers{
		provider:  provider,
		views:     views,
		sessions:  sessions,
		templates: templates,
		blobs:     blobs,
		logins:    newLoginLimiter(),
		logger:    logger.With("component", "web"),
	}
}

// Home renders the login page, or sends signed-in users to the
// dashboard (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if h.sessions.GetFromRequest(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderAuthPage(w, r, "login", AuthPageData{})
}

// SignupPage renders the registration form (GET /signup).
func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	if h.sessions.GetFromRequest(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderAuthPage(w, r, "signup", AuthPageData{})
}

// Login verifies credentials and starts a session (POST /login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.logins.allow(r.RemoteAddr) {
		http.Error(w, "Too many login attempts, try again shortly", http.StatusTooManyRequests)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	account, err := h.provider.SignIn(r.Context(), email, password)
	if err != nil {
		msg := "Something went wrong, please try again"
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			msg = "Invalid email or password"
		case errors.Is(err, identity.ErrEmailNotConfirmed):
			msg = "Please confirm your email address before signing in"
		default:
			h.logger.Error("sign-in failed", "err", err)
		}
		h.renderAuthPage(w, r, "login", AuthPageData{Email: email, Error: msg})
		return
	}

	session, err := h.sessions.Create(r.Context(), account)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Signup registers a new account (POST /signup).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	account, err := h.provider.SignUp(r.Context(), email, password)
	if err != nil {
		msg := "Something went wrong, please try again"
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			msg = "That email address is already registered"
		case errors.Is(err, identity.ErrInvalidCredentials):
			msg = "Email and password are required"
		default:
			h.logger.Error("sign-up failed", "err", err)
		}
		h.renderAuthPage(w, r, "signup", AuthPageData{Email: email, Error: msg})
		return
	}

	if !account.Confirmed() {
		h.renderAuthPage(w, r, "login", AuthPageData{
			Email: email,
			PageData: PageData{Flash: &FlashMessage{
				Type:    "info",
				Message: "Check your email to confirm your account, then sign in",
			}},
		})
		return
	}

	session, err := h.sessions.Create(r.Context(), account)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout ends the session (POST /logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetFromRequest(r); session != nil {
		// Sign out everywhere, not just this browser.
		h.sessions.DeleteForUser(r.Context(), session.UserID)
		h.provider.SignOut(session.UserID)
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard renders the playlist view (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, view := h.requireView(w, r)
	if view == nil {
		return
	}

	current := view.Playback.Current()
	tracks := view.Machine.Tracks()
	data := DashboardPageData{
		PageData: PageData{
			Title:       "My Music",
			CurrentPath: r.URL.Path,
			User: &UserData{
				ID:    session.UserID,
				Email: session.Email,
				Name:  session.Name,
			},
		},
		Tracks:        make([]TrackData, 0, len(tracks)),
		UsingFallback: view.UsingFallback,
		CurrentID:     current,
	}
	if view.UsingFallback {
		data.Flash = &FlashMessage{
			Type:    "warning",
			Message: "Database unavailable: your library is stored locally on this server",
		}
	}
	if failed := r.URL.Query()["failed"]; len(failed) > 0 {
		data.Flash = &FlashMessage{
			Type:    "error",
			Message: "Failed to upload " + strings.Join(failed, ", "),
		}
	}
	for _, t := range tracks {
		data.Tracks = append(data.Tracks, TrackData{
			ID:       t.ID,
			Title:    t.Title,
			FileName: t.FileName,
			URL:      view.Machine.TrackURL(t),
			Duration: t.Duration,
			FileSize: t.FileSize,
			Position: t.Position,
			Playing:  t.ID == current,
			AddedAt:  t.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "dashboard", data); err != nil {
		h.logger.Error("rendering dashboard", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// UploadSongs ingests a batch of files into the playlist (POST /songs).
func (h *Handlers) UploadSongs(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	var files []upload.File
	for _, header := range r.MultipartForm.File["songs"] {
		files = append(files, upload.File{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return header.Open() },
		})
	}

	intake := upload.NewIntake(view.Store, view.Machine, h.logger)
	results := intake.Ingest(r.Context(), files)
	for _, res := range results {
		if res.Err != nil {
			h.logger.Error("ingesting file", "name", res.Name, "err", res.Err)
		}
	}

	http.Redirect(w, r, uploadRedirect(results), http.StatusSeeOther)
}

// uploadRedirect builds the post-upload dashboard URL, carrying one
// "failed" query param per file that did not make it in.
func uploadRedirect(results []upload.Result) string {
	values := url.Values{}
	for _, res := range results {
		if res.Err != nil {
			values.Add("failed", res.Name)
		}
	}
	if len(values) == 0 {
		return "/dashboard"
	}
	return "/dashboard?" + values.Encode()
}

// Reorder applies a new track order from the drag-and-drop UI
// (POST /songs/reorder). The form carries one "id" field per track in
// the new order.
func (h *Handlers) Reorder(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	ids := r.Form["id"]

	if err := view.Machine.Reorder(ids); err != nil {
		if errors.Is(err, playlist.ErrBadReorder) {
			http.Error(w, "Order does not match the current playlist", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to reorder", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSong removes a track (POST /songs/{id}/delete).
func (h *Handlers) DeleteSong(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if err := view.Machine.Remove(r.Context(), id); err != nil {
		if errors.Is(err, playlist.ErrTrackNotFound) {
			http.Error(w, "Track not found", http.StatusNotFound)
			return
		}
		h.logger.Error("deleting track", "id", id, "err", err)
		http.Error(w, "Failed to delete track", http.StatusInternalServerError)
		return
	}
	view.Playback.ClearIf(id)

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// RenameSong updates a track's display title (POST /songs/{id}/title).
func (h *Handlers) RenameSong(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := view.Machine.Rename(r.Context(), id, title); err != nil {
		if errors.Is(err, playlist.ErrTrackNotFound) {
			http.Error(w, "Track not found", http.StatusNotFound)
			return
		}
		h.logger.Error("renaming track", "id", id, "err", err)
		http.Error(w, "Failed to rename track", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ReportDuration records a track's duration once the player has read
// its metadata (POST /songs/{id}/duration). Best-effort.
func (h *Handlers) ReportDuration(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	seconds, err := strconv.Atoi(r.FormValue("seconds"))
	if err != nil || seconds < 0 {
		http.Error(w, "Invalid duration", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := view.Machine.SetDuration(r.Context(), id, seconds); err != nil {
		if errors.Is(err, playlist.ErrTrackNotFound) {
			http.Error(w, "Track not found", http.StatusNotFound)
			return
		}
		h.logger.Error("recording track duration", "id", id, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncNow persists the current order immediately (POST /songs/sync).
func (h *Handlers) SyncNow(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	if err := view.Machine.SyncNow(r.Context()); err != nil {
		h.logger.Error("syncing positions", "err", err)
		http.Error(w, "Failed to save order", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePlayback plays or pauses a track (POST /songs/{id}/toggle).
func (h *Handlers) TogglePlayback(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	view.Playback.Toggle(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// TrackEnded advances playback when a track finishes
// (POST /songs/{id}/ended).
func (h *Handlers) TrackEnded(w http.ResponseWriter, r *http.Request) {
	_, view := h.requireView(w, r)
	if view == nil {
		return
	}

	view.Playback.TrackEnded(chi.URLParam(r, "id"), view.Machine.TrackIDs())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(view.Playback.Current()))
}

// Blob serves an in-memory fallback upload (GET /blobs/{id}). Blobs
// only resolve for their owner.
func (h *Handlers) Blob(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, contentType, ok := h.blobs.Get(session.UserID, chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Write(data)
}

// requireView resolves the session and its view, redirecting to the
// login page when the request is unauthenticated.
func (h *Handlers) requireView(w http.ResponseWriter, r *http.Request) (*Session, *identity.View) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, nil
	}
	account, err := h.provider.Account(r.Context(), session.UserID)
	if err != nil {
		// The session outlives a reachable accounts table: fallback-mode
		// requests keep working from what the session already carries.
		account = &db.Account{ID: session.UserID, Email: session.Email, Name: session.Name}
	}
	return session, h.views.For(r.Context(), account)
}

func (h *Handlers) renderAuthPage(w http.ResponseWriter, r *http.Request, page string, data AuthPageData) {
	data.CurrentPath = r.URL.Path
	if data.Title == "" {
		data.Title = "MusicVault"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("rendering page", "page", page, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// loginLimiter throttles sign-in attempts per client IP.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *loginLimiter) allow(remoteAddr string) bool {
	ip := remoteAddr
	if i := strings.LastIndex(ip, ":"); i > 0 {
		ip = ip[:i]
	}

	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(2*time.Second), 5)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
