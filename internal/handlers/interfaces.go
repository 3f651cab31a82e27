package handlers

import (
	"context"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/services"
	"github.com/vidshare/backend/internal/views"
)

// SessionManager issues, rotates and revokes session tokens.
type SessionManager interface {
	Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// ViewerResolver turns an access token into the requesting viewer.
type ViewerResolver interface {
	Resolve(ctx context.Context, token string) (models.Viewer, error)
}

// UserService captures the account operations exposed over HTTP.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (models.Viewer, error)
	ChangePassword(ctx context.Context, viewer models.Viewer, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, viewer models.Viewer, fullName, email string) (models.Viewer, error)
	UpdateAvatar(ctx context.Context, viewer models.Viewer, localPath string) (models.Viewer, error)
	UpdateCoverImage(ctx context.Context, viewer models.Viewer, localPath string) (models.Viewer, error)
}

// VideoService captures the video operations exposed over HTTP.
type VideoService interface {
	Publish(ctx context.Context, viewer models.Viewer, in services.PublishInput) (models.Video, error)
	Watch(ctx context.Context, viewer models.Viewer, videoID string) (models.Video, error)
	Update(ctx context.Context, viewer models.Viewer, videoID string, in services.UpdateVideoInput) (models.Video, error)
	Delete(ctx context.Context, viewer models.Viewer, videoID string) error
	TogglePublish(ctx context.Context, viewer models.Viewer, videoID string) (models.Video, error)
}

// CommentService captures comment mutations.
type CommentService interface {
	Create(ctx context.Context, viewer models.Viewer, videoID, content string) (models.Comment, error)
	Update(ctx context.Context, viewer models.Viewer, commentID, content string) (models.Comment, error)
	Delete(ctx context.Context, viewer models.Viewer, commentID string) error
}

// LikeService toggles likes.
type LikeService interface {
	Toggle(ctx context.Context, viewer models.Viewer, kind models.LikeTarget, targetID string) (services.ToggleResult, error)
}

// SubscriptionService toggles channel subscriptions.
type SubscriptionService interface {
	Toggle(ctx context.Context, viewer models.Viewer, channelID string) (services.SubscriptionResult, error)
}

// PlaylistService captures playlist mutations.
type PlaylistService interface {
	Create(ctx context.Context, viewer models.Viewer, name, description string) (models.Playlist, error)
	Update(ctx context.Context, viewer models.Viewer, playlistID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, viewer models.Viewer, playlistID string) error
	AddVideo(ctx context.Context, viewer models.Viewer, playlistID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, viewer models.Viewer, playlistID, videoID string) (models.Playlist, error)
}

// ViewBuilder builds the viewer-aware read models.
type ViewBuilder interface {
	VideoFeed(ctx context.Context, viewer models.Viewer, params views.FeedParams, req views.PageRequest) (views.Page[views.FeedVideo], error)
	CommentThread(ctx context.Context, viewer models.Viewer, videoID string, req views.PageRequest) (views.Page[views.ThreadComment], error)
	LikedVideos(ctx context.Context, viewer models.Viewer, req views.PageRequest) (views.Page[views.LikedVideo], error)
	ChannelProfile(ctx context.Context, viewer models.Viewer, username string) (views.ChannelProfile, error)
	PlaylistDetail(ctx context.Context, viewer models.Viewer, playlistID string) (views.PlaylistDetail, error)
	UserPlaylists(ctx context.Context, userID string, req views.PageRequest) (views.Page[views.PlaylistSummary], error)
	WatchHistory(ctx context.Context, viewer models.Viewer, req views.PageRequest) (views.Page[views.FeedVideo], error)
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error
