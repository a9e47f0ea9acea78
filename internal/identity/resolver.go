package identity

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/gateway"
	"github.com/cwhit/musicvault/internal/localstore"
	"github.com/cwhit/musicvault/internal/playback"
	"github.com/cwhit/musicvault/internal/playlist"
)

// SessionStore is the upload-capable playlist store bound to a session.
type SessionStore interface {
	playlist.Store
	Prepare(ctx context.Context, fileName string, r io.Reader, size int64, contentType string) (string, error)
}

// View is everything the web layer needs for one signed-in user's
// session: their profile, the live playlist machine, and the playback
// coordinator. It is created once per sign-in and torn down on
// sign-out.
type View struct {
	Profile       *db.Profile
	Store         SessionStore
	Machine       *playlist.Machine
	Playback      *playback.Coordinator
	UsingFallback bool
}

// Close releases the view's resources, flushing any pending position
// save first.
func (v *View) Close(ctx context.Context) {
	v.Machine.SyncNow(ctx)
	v.Machine.Close()
}

// Resolver builds session views. It probes the database schema once per
// resolution and selects the remote store or the local fallback for the
// whole session; the choice is never revisited mid-session.
type Resolver struct {
	gateway *gateway.Gateway
	local   *localstore.Store
	blobs   *gateway.BlobCache
	logger  *log.Logger
	opts    []playlist.Option
}

func NewResolver(gw *gateway.Gateway, local *localstore.Store, blobs *gateway.BlobCache, logger *log.Logger, opts ...playlist.Option) *Resolver {
	return &Resolver{
		gateway: gw,
		local:   local,
		blobs:   blobs,
		logger:  logger.With("component", "resolver"),
		opts:    opts,
	}
}

// Resolve assembles the session view for an authenticated account.
// Resolution never fails: when the schema is missing the session runs
// against the local fallback, and when profile provisioning fails the
// session continues with an in-memory profile.
func (r *Resolver) Resolve(ctx context.Context, account *db.Account) *View {
	usingFallback := r.gateway.SchemaMissing(ctx)
	if usingFallback {
		r.logger.Warn("database schema missing, session will use local fallback", "user", account.ID)
	}

	profile := r.resolveProfile(ctx, account, usingFallback)

	var store SessionStore
	if usingFallback {
		store = gateway.NewFallbackStore(r.local, r.blobs, account.ID)
	} else {
		store = gateway.NewRemoteStore(r.gateway, account.ID)
	}

	machine := playlist.New(store, r.logger.With("user", account.ID), r.opts...)
	machine.Load(ctx)

	return &View{
		Profile:       profile,
		Store:         store,
		Machine:       machine,
		Playback:      playback.New(),
		UsingFallback: usingFallback,
	}
}

// resolveProfile fetches the user's profile, lazily creating it (and a
// best-effort default playlist) on first sign-in. In fallback mode, or
// when provisioning fails, a synthesized profile stands in.
func (r *Resolver) resolveProfile(ctx context.Context, account *db.Account, usingFallback bool) *db.Profile {
	name := account.Name
	if name == "" {
		name = localPart(account.Email)
	}
	synthesized := &db.Profile{
		ID:    account.ID,
		Email: account.Email,
		Name:  &name,
	}
	if usingFallback {
		return synthesized
	}

	if profile := r.gateway.GetProfile(ctx, account.ID); profile != nil {
		return profile
	}

	if !r.gateway.CreateProfile(ctx, synthesized) {
		r.logger.Warn("profile provisioning failed, continuing without persisted profile", "user", account.ID)
		return synthesized
	}
	// The default playlist is a convenience, not a requirement; the
	// session proceeds either way.
	r.gateway.CreateDefaultPlaylist(ctx, account.ID)
	return synthesized
}
