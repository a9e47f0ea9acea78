package web

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/identity"
)

// Views caches one session view per signed-in user. The view is built
// lazily on first use after sign-in and torn down when the identity
// provider publishes a signed-out event, flushing any pending playlist
// save on the way out.
type Views struct {
	resolver *identity.Resolver
	logger   *log.Logger

	mu    sync.Mutex
	byUID map[string]*identity.View
}

func NewViews(resolver *identity.Resolver, events *identity.Broadcaster, logger *log.Logger) *Views {
	v := &Views{
		resolver: resolver,
		logger:   logger.With("component", "views"),
		byUID:    make(map[string]*identity.View),
	}
	events.Subscribe(func(ev identity.Event) {
		// A fresh sign-in re-resolves from scratch rather than reusing a
		// stale view; sign-out tears the view down.
		v.drop(ev.UserID)
	})
	return v
}

// For returns the view for the given account, resolving one if none is
// cached.
func (v *Views) For(ctx context.Context, account *db.Account) *identity.View {
	v.mu.Lock()
	if view, ok := v.byUID[account.ID]; ok {
		v.mu.Unlock()
		return view
	}
	v.mu.Unlock()

	// Resolution probes the database, so it runs outside the lock. Two
	// concurrent first requests may both resolve; the loser's view is
	// discarded before anything is played through it.
	view := v.resolver.Resolve(ctx, account)

	v.mu.Lock()
	defer v.mu.Unlock()
	if existing, ok := v.byUID[account.ID]; ok {
		view.Machine.Close()
		return existing
	}
	v.byUID[account.ID] = view
	return view
}

func (v *Views) drop(userID string) {
	v.mu.Lock()
	view, ok := v.byUID[userID]
	delete(v.byUID, userID)
	v.mu.Unlock()

	if !ok {
		return
	}
	view.Close(context.Background())
	v.logger.Info("session view torn down", "user", userID)
}

// CloseAll tears down every cached view, used at server shutdown.
func (v *Views) CloseAll(ctx context.Context) {
	v.mu.Lock()
	views := make([]*identity.View, 0, len(v.byUID))
	for _, view := range v.byUID {
		views = append(views, view)
	}
	v.byUID = make(map[string]*identity.View)
	v.mu.Unlock()

	for _, view := range views {
		view.Close(ctx)
	}
}
