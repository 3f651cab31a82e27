package repositories

import (
	"context"
	"time"

	"github.com/vidshare/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists and their ordered membership.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AppendVideo(ctx context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error)
	// RemoveVideo drops every occurrence of videoID from the playlist.
	RemoveVideo(ctx context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Playlist, int, error)
}
