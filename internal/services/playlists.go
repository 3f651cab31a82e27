package services

import (
	"context"
	"strings"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// PlaylistService manages playlists owned by the viewer.
type PlaylistService struct {
	playlists repositories.PlaylistRepository
	videos    repositories.VideoRepository
	clock     clock
}

// NewPlaylistService constructs a PlaylistService.
func NewPlaylistService(playlists repositories.PlaylistRepository, videos repositories.VideoRepository) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, clock: defaultClock()}
}

// Create makes an empty playlist owned by the viewer.
func (s *PlaylistService) Create(ctx context.Context, viewer models.Viewer, name, description string) (models.Playlist, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Playlist{}, err
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validate.Required(map[string]string{"name": name, "description": description}); err != nil {
		return models.Playlist{}, err
	}

	now := s.clock.now()
	playlist := models.Playlist{
		ID:          s.clock.newID(),
		Name:        name,
		Description: description,
		OwnerID:     viewer.ID,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// Update renames a playlist and replaces its description.
func (s *PlaylistService) Update(ctx context.Context, viewer models.Viewer, playlistID, name, description string) (models.Playlist, error) {
	if _, err := s.owned(ctx, viewer, playlistID); err != nil {
		return models.Playlist{}, err
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validate.Required(map[string]string{"name": name, "description": description}); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.Update(ctx, playlistID, name, description, s.clock.now())
	if err != nil {
		return models.Playlist{}, notFound(err, "playlist not found", "update playlist")
	}
	return playlist, nil
}

// Delete removes a playlist owned by the viewer.
func (s *PlaylistService) Delete(ctx context.Context, viewer models.Viewer, playlistID string) error {
	if _, err := s.owned(ctx, viewer, playlistID); err != nil {
		return err
	}
	if err := s.playlists.Delete(ctx, playlistID); err != nil {
		return notFound(err, "playlist not found", "delete playlist")
	}
	return nil
}

// AddVideo appends an existing video to the end of the playlist. Duplicates are kept.
func (s *PlaylistService) AddVideo(ctx context.Context, viewer models.Viewer, playlistID, videoID string) (models.Playlist, error) {
	if _, err := s.owned(ctx, viewer, playlistID); err != nil {
		return models.Playlist{}, err
	}
	if err := validate.ID(videoID, "video"); err != nil {
		return models.Playlist{}, err
	}
	if _, err := visibleVideo(ctx, s.videos, viewer, videoID); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.AppendVideo(ctx, playlistID, videoID, s.clock.now())
	if err != nil {
		return models.Playlist{}, notFound(err, "playlist not found", "add video")
	}
	return playlist, nil
}

// RemoveVideo drops every occurrence of the video from the playlist.
func (s *PlaylistService) RemoveVideo(ctx context.Context, viewer models.Viewer, playlistID, videoID string) (models.Playlist, error) {
	if _, err := s.owned(ctx, viewer, playlistID); err != nil {
		return models.Playlist{}, err
	}
	if err := validate.ID(videoID, "video"); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.RemoveVideo(ctx, playlistID, videoID, s.clock.now())
	if err != nil {
		return models.Playlist{}, notFound(err, "playlist not found", "remove video")
	}
	return playlist, nil
}

func (s *PlaylistService) owned(ctx context.Context, viewer models.Viewer, playlistID string) (models.Playlist, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Playlist{}, err
	}
	if err := validate.ID(playlistID, "playlist"); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, notFound(err, "playlist not found", "load playlist")
	}
	if err := AssertOwner(playlist.OwnerID, viewer); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}
