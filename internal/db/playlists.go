package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// ListByUser retrieves all playlists for a user, ordered by creation time.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID string) ([]Playlist, error) {
	query := `
		SELECT id, user_id, name, description, is_default, created_at, updated_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", classify(err))
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var playlist Playlist
		if err := rows.Scan(
			&playlist.ID,
			&playlist.UserID,
			&playlist.Name,
			&playlist.Description,
			&playlist.IsDefault,
			&playlist.CreatedAt,
			&playlist.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	return playlists, rows.Err()
}

// GetDefault retrieves the default playlist for a user.
func (r *PlaylistRepository) GetDefault(ctx context.Context, userID string) (*Playlist, error) {
	query := `
		SELECT id, user_id, name, description, is_default, created_at, updated_at
		FROM playlists
		WHERE user_id = $1 AND is_default = TRUE
	`
	var playlist Playlist
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&playlist.ID,
		&playlist.UserID,
		&playlist.Name,
		&playlist.Description,
		&playlist.IsDefault,
		&playlist.CreatedAt,
		&playlist.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying default playlist: %w", classify(err))
	}
	return &playlist, nil
}

// Create inserts a new playlist. The server assigns the identifier and
// timestamps, which are written back into the given struct.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist) error {
	query := `
		INSERT INTO playlists (user_id, name, description, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		playlist.UserID,
		playlist.Name,
		playlist.Description,
		playlist.IsDefault,
	).Scan(&playlist.ID, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", classify(err))
	}
	return nil
}
