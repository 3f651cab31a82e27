package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new playlist together with its initial videos.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt); err != nil {
			return err
		}
		for i, videoID := range playlist.VideoIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO playlist_videos (playlist_id, position, video_id) VALUES ($1, $2, $3)
            `, playlist.ID, i, videoID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// FindByID loads a playlist with its videos in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return loadPlaylist(ctx, conn, id)
}

// Update changes the name and description of a playlist.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, name, description string, updatedAt time.Time) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, id, name, description, updatedAt)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}

	return loadPlaylist(ctx, conn, id)
}

// Delete removes a playlist and its membership rows.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendVideo adds videoID at the end of the playlist.
func (r *PostgresPlaylistRepository) AppendVideo(ctx context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, toggleTxOptions, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, id, updatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, position, video_id)
            SELECT $1, COALESCE(MAX(position) + 1, 0), $2
            FROM playlist_videos
            WHERE playlist_id = $1
        `, id, videoID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("append playlist video: %w", err)
	}

	return loadPlaylist(ctx, conn, id)
}

// RemoveVideo drops every occurrence of videoID from the playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, id, updatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, id, videoID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}

	return loadPlaylist(ctx, conn, id)
}

// ListByOwner returns a newest-first window of the owner's playlists.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Playlist, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM playlists WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count playlists: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
        OFFSET $2 LIMIT $3
    `, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query playlists: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan playlist: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate playlists: %w", err)
	}

	playlists := make([]models.Playlist, 0, len(ids))
	for _, id := range ids {
		playlist, err := loadPlaylist(ctx, conn, id)
		if err != nil {
			return nil, 0, err
		}
		playlists = append(playlists, playlist)
	}
	return playlists, total, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadPlaylist(ctx context.Context, q querier, id string) (models.Playlist, error) {
	var playlist models.Playlist
	err := q.QueryRow(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id).Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	playlist.CreatedAt = playlist.CreatedAt.UTC()
	playlist.UpdatedAt = playlist.UpdatedAt.UTC()

	rows, err := q.Query(ctx, `
        SELECT video_id FROM playlist_videos WHERE playlist_id = $1 ORDER BY position
    `, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	playlist.VideoIDs = []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, fmt.Errorf("scan playlist video: %w", err)
		}
		playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	}
	if err := rows.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return playlist, nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
