// Package services implements the mutating operations of the API: account
// management, publishing, comments, likes, subscriptions and playlists.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

// BlobStore stores uploaded media. Upload consumes the local file whether or not it succeeds.
type BlobStore interface {
	Upload(ctx context.Context, localPath, ownerID string) (models.Asset, error)
	Delete(ctx context.Context, ref models.AssetRef) error
}

// CountInvalidator drops cached relationship counts.
type CountInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// AssertOwner fails Forbidden unless viewer owns the entity owned by ownerID.
// Anonymous viewers fail Unauthorized.
func AssertOwner(ownerID string, viewer models.Viewer) error {
	if viewer.IsAnonymous() {
		return apperr.New(apperr.Unauthorized, "unauthorized request")
	}
	if ownerID != viewer.ID {
		return apperr.New(apperr.Forbidden, "you are not the owner of this resource")
	}
	return nil
}

func requireViewer(viewer models.Viewer) error {
	if viewer.IsAnonymous() {
		return apperr.New(apperr.Unauthorized, "unauthorized request")
	}
	return nil
}

// notFound translates a repository miss into a NotFound error carrying message.
func notFound(err error, message, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.New(apperr.NotFound, message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// visibleVideo loads a video the viewer may see. Unpublished videos of other
// owners are reported as missing.
func visibleVideo(ctx context.Context, videos repositories.VideoRepository, viewer models.Viewer, videoID string) (models.Video, error) {
	video, err := videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, notFound(err, "video not found", "load video")
	}
	if !video.VisibleTo(viewer.ID) {
		return models.Video{}, apperr.New(apperr.NotFound, "video not found")
	}
	return video, nil
}

// deleteAsset removes a stored asset, logging failures without returning them.
func deleteAsset(ctx context.Context, blobs BlobStore, asset models.Asset, kind models.ResourceKind) {
	if err := blobs.Delete(ctx, asset.Ref(kind)); err != nil {
		logging.FromContext(ctx).Warn("failed to delete asset",
			slog.String("asset_id", asset.AssetID),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
	}
}

type clock struct {
	now   func() time.Time
	newID func() string
}

func defaultClock() clock {
	return clock{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}
