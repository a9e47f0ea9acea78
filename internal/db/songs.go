package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SongRepository handles song database operations.
type SongRepository struct {
	pool *pgxpool.Pool
}

// ListByUser retrieves all songs for a user, ordered by position ascending.
func (r *SongRepository) ListByUser(ctx context.Context, userID string) ([]Song, error) {
	query := `
		SELECT id, user_id, title, file_name, file_path, duration, file_size, mime_type, position, created_at, updated_at
		FROM songs
		WHERE user_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", classify(err))
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var song Song
		if err := rows.Scan(
			&song.ID,
			&song.UserID,
			&song.Title,
			&song.FileName,
			&song.FilePath,
			&song.Duration,
			&song.FileSize,
			&song.MimeType,
			&song.Position,
			&song.CreatedAt,
			&song.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// Create inserts a new song. The server assigns the identifier and
// timestamps, which are written back into the given struct.
func (r *SongRepository) Create(ctx context.Context, song *Song) error {
	query := `
		INSERT INTO songs (user_id, title, file_name, file_path, duration, file_size, mime_type, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		song.UserID,
		song.Title,
		song.FileName,
		song.FilePath,
		song.Duration,
		song.FileSize,
		song.MimeType,
		song.Position,
	).Scan(&song.ID, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting song: %w", classify(err))
	}
	return nil
}

// Get retrieves a song by ID.
func (r *SongRepository) Get(ctx context.Context, id string) (*Song, error) {
	query := `
		SELECT id, user_id, title, file_name, file_path, duration, file_size, mime_type, position, created_at, updated_at
		FROM songs
		WHERE id = $1
	`
	var song Song
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&song.ID,
		&song.UserID,
		&song.Title,
		&song.FileName,
		&song.FilePath,
		&song.Duration,
		&song.FileSize,
		&song.MimeType,
		&song.Position,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying song: %w", classify(err))
	}
	return &song, nil
}

// Delete removes a song by ID.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting song: %w", classify(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTitle updates the display title of a song.
func (r *SongRepository) UpdateTitle(ctx context.Context, id, title string) error {
	query := `
		UPDATE songs
		SET title = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, title)
	if err != nil {
		return fmt.Errorf("updating song title: %w", classify(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDuration updates the duration of a song.
func (r *SongRepository) UpdateDuration(ctx context.Context, id string, duration int) error {
	query := `
		UPDATE songs
		SET duration = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, duration)
	if err != nil {
		return fmt.Errorf("updating song duration: %w", classify(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePositions writes new playlist positions, one update per pair.
// All updates are issued and awaited; success means every one succeeded.
// Partial failure is not rolled back, which can leave positions
// inconsistent until the next full resync.
func (r *SongRepository) UpdatePositions(ctx context.Context, updates []PositionUpdate) error {
	query := `
		UPDATE songs
		SET position = $2, updated_at = NOW()
		WHERE id = $1
	`
	var firstErr error
	for _, u := range updates {
		if _, err := r.pool.Exec(ctx, query, u.ID, u.Position); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("updating position for song %s: %w", u.ID, classify(err))
		}
	}
	return firstErr
}
