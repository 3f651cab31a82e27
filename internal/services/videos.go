package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// WatchRecorder appends to a user's watch history.
type WatchRecorder interface {
	PushWatchHistory(ctx context.Context, userID, videoID string, watchedAt time.Time) error
}

// PublishInput describes a new upload. Both paths name local temporary files.
type PublishInput struct {
	Title         string
	Description   string
	Duration      float64
	VideoPath     string
	ThumbnailPath string
}

// UpdateVideoInput changes a video's details. ThumbnailPath is optional.
type UpdateVideoInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// VideoService manages videos.
type VideoService struct {
	videos  repositories.VideoRepository
	history WatchRecorder
	blobs   BlobStore
	clock   clock
}

// NewVideoService constructs a VideoService.
func NewVideoService(videos repositories.VideoRepository, history WatchRecorder, blobs BlobStore) *VideoService {
	return &VideoService{
		videos:  videos,
		history: history,
		blobs:   blobs,
		clock:   defaultClock(),
	}
}

// Publish uploads the media of a new video and stores it as published.
func (s *VideoService) Publish(ctx context.Context, viewer models.Viewer, in PublishInput) (video models.Video, err error) {
	ctx, span := logging.StartSpan(ctx, "videos.publish")
	defer func() { span.Finish(err) }()

	if err := requireViewer(viewer); err != nil {
		return models.Video{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Required(map[string]string{"title": in.Title, "description": in.Description}); err != nil {
		return models.Video{}, err
	}
	if in.VideoPath == "" {
		return models.Video{}, apperr.New(apperr.BadRequest, "video file is required")
	}
	if in.ThumbnailPath == "" {
		return models.Video{}, apperr.New(apperr.BadRequest, "thumbnail is required")
	}
	if in.Duration < 0 {
		return models.Video{}, apperr.New(apperr.BadRequest, "duration must not be negative")
	}

	file, err := s.blobs.Upload(ctx, in.VideoPath, viewer.ID)
	if err != nil {
		return models.Video{}, apperr.Wrap(apperr.Internal, "failed to upload video", err)
	}
	thumbnail, err := s.blobs.Upload(ctx, in.ThumbnailPath, viewer.ID)
	if err != nil {
		deleteAsset(ctx, s.blobs, file, models.ResourceVideo)
		return models.Video{}, apperr.Wrap(apperr.Internal, "failed to upload thumbnail", err)
	}

	now := s.clock.now()
	video = models.Video{
		ID:          s.clock.newID(),
		OwnerID:     viewer.ID,
		VideoFile:   file,
		Thumbnail:   thumbnail,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		deleteAsset(ctx, s.blobs, file, models.ResourceVideo)
		deleteAsset(ctx, s.blobs, thumbnail, models.ResourceImage)
		return models.Video{}, apperr.Wrap(apperr.Internal, "failed to save video", err)
	}
	return video, nil
}

// Watch returns a video, counting the view and recording it in the viewer's
// history when the viewer is signed in. Unpublished videos are visible only to their owner.
func (s *VideoService) Watch(ctx context.Context, viewer models.Viewer, videoID string) (models.Video, error) {
	if err := validate.ID(videoID, "video"); err != nil {
		return models.Video{}, err
	}

	video, err := visibleVideo(ctx, s.videos, viewer, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if err := s.videos.IncrementViews(ctx, video.ID); err != nil {
		return models.Video{}, notFound(err, "video not found", "increment views")
	}
	video.Views++

	if !viewer.IsAnonymous() {
		if err := s.history.PushWatchHistory(ctx, viewer.ID, video.ID, s.clock.now()); err != nil {
			logging.FromContext(ctx).Warn("failed to record watch history",
				slog.String("video_id", video.ID), slog.Any("error", err))
		}
	}
	return video, nil
}

// Update changes the title, description and optionally the thumbnail of a video
// owned by the viewer. The replaced thumbnail is deleted afterwards.
func (s *VideoService) Update(ctx context.Context, viewer models.Viewer, videoID string, in UpdateVideoInput) (models.Video, error) {
	video, err := s.owned(ctx, viewer, videoID)
	if err != nil {
		return models.Video{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Required(map[string]string{"title": in.Title, "description": in.Description}); err != nil {
		return models.Video{}, err
	}

	previous := video.Thumbnail
	replaced := false
	if in.ThumbnailPath != "" {
		thumbnail, err := s.blobs.Upload(ctx, in.ThumbnailPath, viewer.ID)
		if err != nil {
			return models.Video{}, apperr.Wrap(apperr.Internal, "failed to upload thumbnail", err)
		}
		video.Thumbnail = thumbnail
		replaced = true
	}

	video.Title = in.Title
	video.Description = in.Description
	video.UpdatedAt = s.clock.now()
	if err := s.videos.Update(ctx, video); err != nil {
		if replaced {
			deleteAsset(ctx, s.blobs, video.Thumbnail, models.ResourceImage)
		}
		return models.Video{}, notFound(err, "video not found", "update video")
	}

	if replaced && !previous.IsZero() {
		deleteAsset(ctx, s.blobs, previous, models.ResourceImage)
	}
	return video, nil
}

// Delete removes a video owned by the viewer, then deletes its video file and
// thumbnail. Blob failures are logged and do not fail the call.
func (s *VideoService) Delete(ctx context.Context, viewer models.Viewer, videoID string) (err error) {
	ctx, span := logging.StartSpan(ctx, "videos.delete", slog.String("video_id", videoID))
	defer func() { span.Finish(err) }()

	video, err := s.owned(ctx, viewer, videoID)
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, video.ID); err != nil {
		return notFound(err, "video not found", "delete video")
	}

	deleteAsset(ctx, s.blobs, video.VideoFile, models.ResourceVideo)
	deleteAsset(ctx, s.blobs, video.Thumbnail, models.ResourceImage)
	return nil
}

// TogglePublish flips the published flag of a video owned by the viewer.
func (s *VideoService) TogglePublish(ctx context.Context, viewer models.Viewer, videoID string) (models.Video, error) {
	video, err := s.owned(ctx, viewer, videoID)
	if err != nil {
		return models.Video{}, err
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = s.clock.now()
	if err := s.videos.Update(ctx, video); err != nil {
		return models.Video{}, notFound(err, "video not found", "update video")
	}
	return video, nil
}

func (s *VideoService) owned(ctx context.Context, viewer models.Viewer, videoID string) (models.Video, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Video{}, err
	}
	if err := validate.ID(videoID, "video"); err != nil {
		return models.Video{}, err
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.New(apperr.NotFound, "video not found")
		}
		return models.Video{}, err
	}
	if err := AssertOwner(video.OwnerID, viewer); err != nil {
		return models.Video{}, err
	}
	return video, nil
}
