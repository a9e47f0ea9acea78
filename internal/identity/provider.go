// Package identity handles authentication and session resolution: who
// the user is, and which backing store their session runs against.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/cwhit/musicvault/internal/db"
)

// Typed sign-in failures. Handlers map these onto distinct user-facing
// messages, so they must stay distinguishable.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email address not confirmed")
	ErrEmailTaken         = errors.New("email address already registered")
)

// Provider authenticates users against the accounts table.
type Provider struct {
	accounts            *db.AccountRepository
	events              *Broadcaster
	requireConfirmation bool
	logger              *log.Logger
}

func NewProvider(accounts *db.AccountRepository, events *Broadcaster, requireConfirmation bool, logger *log.Logger) *Provider {
	return &Provider{
		accounts:            accounts,
		events:              events,
		requireConfirmation: requireConfirmation,
		logger:              logger.With("component", "identity"),
	}
}

// Events exposes the auth event broadcaster.
func (p *Provider) Events() *Broadcaster {
	return p.events
}

// SignUp registers a new account. The display name defaults to the
// email's local part. When confirmation is not required, the account is
// marked confirmed immediately and a signed-in event fires.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*db.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if _, err := p.accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &db.Account{
		Email:        email,
		Name:         localPart(email),
		PasswordHash: string(hash),
	}
	if !p.requireConfirmation {
		now := time.Now()
		account.ConfirmedAt = &now
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	p.logger.Info("account created", "user", account.ID, "confirmed", account.Confirmed())
	if account.Confirmed() {
		p.events.Publish(Event{Kind: EventSignedIn, UserID: account.ID})
	}
	return account, nil
}

// SignIn verifies the credentials and returns the account. Failures are
// typed: an unconfirmed email is reported distinctly from a bad
// email/password pair, which collapse into one error.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*db.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if p.requireConfirmation && !account.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	p.events.Publish(Event{Kind: EventSignedIn, UserID: account.ID})
	return account, nil
}

// Account fetches the account behind an active session.
func (p *Provider) Account(ctx context.Context, userID string) (*db.Account, error) {
	account, err := p.accounts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return account, nil
}

// SignOut publishes the signed-out event so per-session state can be
// torn down.
func (p *Provider) SignOut(userID string) {
	p.events.Publish(Event{Kind: EventSignedOut, UserID: userID})
}

// Confirm marks the account's email as confirmed.
func (p *Provider) Confirm(ctx context.Context, userID string) error {
	if err := p.accounts.Confirm(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("confirming account: %w", err)
	}
	return nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
