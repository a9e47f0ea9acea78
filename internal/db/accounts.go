package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository handles account database operations for the
// authentication boundary.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new account. The server assigns the identifier and
// creation timestamp, which are written back into the given struct.
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (email, name, password_hash, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.ConfirmedAt,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting account: %w", classify(err))
	}
	return nil
}

// GetByEmail retrieves an account by email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, email, name, password_hash, confirmed_at, created_at
		FROM accounts
		WHERE email = $1
	`
	var account Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.ConfirmedAt,
		&account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", classify(err))
	}
	return &account, nil
}

// Get retrieves an account by ID.
func (r *AccountRepository) Get(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, email, name, password_hash, confirmed_at, created_at
		FROM accounts
		WHERE id = $1
	`
	var account Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.ConfirmedAt,
		&account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", classify(err))
	}
	return &account, nil
}

// Confirm marks an account's email address as confirmed.
func (r *AccountRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE accounts
		SET confirmed_at = $2
		WHERE id = $1 AND confirmed_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("confirming account: %w", classify(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
