package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// FeedParams filters the video feed. Both fields are optional.
type FeedParams struct {
	Query   string
	OwnerID string
}

// VideoFeed lists published videos newest first, optionally restricted to a text
// match and to one owner. Owners see their own unpublished videos.
func (b *Builder) VideoFeed(ctx context.Context, viewer models.Viewer, params FeedParams, req PageRequest) (page Page[FeedVideo], err error) {
	ctx, span := logging.StartSpan(ctx, "views.video_feed")
	defer func() { span.Finish(err) }()

	req, err = req.Normalize()
	if err != nil {
		return Page[FeedVideo]{}, err
	}

	query := repositories.VideoQuery{
		PublishedOnly: true,
		Offset:        req.Offset(),
		Limit:         req.Limit,
	}
	if params.OwnerID != "" {
		if err := validate.ID(params.OwnerID, "user"); err != nil {
			return Page[FeedVideo]{}, err
		}
		query.OwnerID = params.OwnerID
		query.PublishedOnly = viewer.ID != params.OwnerID
	}
	if text := strings.TrimSpace(params.Query); text != "" {
		ids, err := b.search.Search(ctx, text)
		if err != nil {
			return Page[FeedVideo]{}, fmt.Errorf("search videos: %w", err)
		}
		query.IDs = ids
		query.RestrictToIDs = true
	}

	videos, total, err := b.videos.List(ctx, query)
	if err != nil {
		return Page[FeedVideo]{}, fmt.Errorf("list videos: %w", err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for _, video := range videos {
		ownerIDs = append(ownerIDs, video.OwnerID)
	}
	owners, err := b.owners(ctx, ownerIDs)
	if err != nil {
		return Page[FeedVideo]{}, err
	}

	items := make([]FeedVideo, 0, len(videos))
	for _, video := range videos {
		items = append(items, feedVideo(video, owners))
	}
	return newPage(items, req, total), nil
}

// CommentThread lists the comments of a video newest first with like counts and
// whether the viewer liked each one.
func (b *Builder) CommentThread(ctx context.Context, viewer models.Viewer, videoID string, req PageRequest) (page Page[ThreadComment], err error) {
	ctx, span := logging.StartSpan(ctx, "views.comment_thread", slog.String("video_id", videoID))
	defer func() { span.Finish(err) }()

	if err := validate.ID(videoID, "video"); err != nil {
		return Page[ThreadComment]{}, err
	}
	req, err = req.Normalize()
	if err != nil {
		return Page[ThreadComment]{}, err
	}

	video, err := b.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Page[ThreadComment]{}, apperr.New(apperr.NotFound, "video not found")
		}
		return Page[ThreadComment]{}, fmt.Errorf("load video: %w", err)
	}
	if !video.VisibleTo(viewer.ID) {
		return Page[ThreadComment]{}, apperr.New(apperr.NotFound, "video not found")
	}

	comments, total, err := b.comments.ListForVideo(ctx, videoID, req.Offset(), req.Limit)
	if err != nil {
		return Page[ThreadComment]{}, fmt.Errorf("list comments: %w", err)
	}

	ids := make([]string, 0, len(comments))
	ownerIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.ID)
		ownerIDs = append(ownerIDs, comment.OwnerID)
	}

	owners, err := b.owners(ctx, ownerIDs)
	if err != nil {
		return Page[ThreadComment]{}, err
	}
	counts, err := b.relations.CommentLikeCounts(ctx, ids)
	if err != nil {
		return Page[ThreadComment]{}, fmt.Errorf("count comment likes: %w", err)
	}
	liked := map[string]bool{}
	if !viewer.IsAnonymous() {
		liked, err = b.relations.LikedBy(ctx, viewer.ID, models.LikeTargetComment, ids)
		if err != nil {
			return Page[ThreadComment]{}, fmt.Errorf("load viewer likes: %w", err)
		}
	}

	items := make([]ThreadComment, 0, len(comments))
	for _, comment := range comments {
		items = append(items, ThreadComment{
			ID:         comment.ID,
			Content:    comment.Content,
			CreatedAt:  comment.CreatedAt,
			UpdatedAt:  comment.UpdatedAt,
			Owner:      ownerProfile(comment.OwnerID, owners),
			LikesCount: counts[comment.ID],
			IsLiked:    liked[comment.ID],
		})
	}
	return newPage(items, req, total), nil
}

// LikedVideos lists the videos the viewer has liked, ordered by the videos'
// creation time rather than the time of the like.
func (b *Builder) LikedVideos(ctx context.Context, viewer models.Viewer, req PageRequest) (page Page[LikedVideo], err error) {
	ctx, span := logging.StartSpan(ctx, "views.liked_videos")
	defer func() { span.Finish(err) }()

	if viewer.IsAnonymous() {
		return Page[LikedVideo]{}, apperr.New(apperr.Unauthorized, "unauthorized request")
	}
	req, err = req.Normalize()
	if err != nil {
		return Page[LikedVideo]{}, err
	}

	window, total, err := b.videos.List(ctx, repositories.VideoQuery{
		LikedBy:       viewer.ID,
		PublishedOnly: true,
		VisibleTo:     viewer.ID,
		Offset:        req.Offset(),
		Limit:         req.Limit,
	})
	if err != nil {
		return Page[LikedVideo]{}, fmt.Errorf("list liked videos: %w", err)
	}

	ownerIDs := make([]string, 0, len(window))
	for _, video := range window {
		ownerIDs = append(ownerIDs, video.OwnerID)
	}
	owners, err := b.owners(ctx, ownerIDs)
	if err != nil {
		return Page[LikedVideo]{}, err
	}

	items := make([]LikedVideo, 0, len(window))
	for _, video := range window {
		items = append(items, LikedVideo{Video: feedVideo(video, owners)})
	}
	return newPage(items, req, total), nil
}

// ChannelProfile returns the public profile of the channel named username with
// subscription counts and whether the viewer subscribes to it.
func (b *Builder) ChannelProfile(ctx context.Context, viewer models.Viewer, username string) (profile ChannelProfile, err error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_profile", slog.String("username", username))
	defer func() { span.Finish(err) }()

	username = strings.TrimSpace(username)
	if username == "" {
		return ChannelProfile{}, apperr.New(apperr.BadRequest, "username is missing")
	}

	channel, err := b.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ChannelProfile{}, apperr.New(apperr.NotFound, "channel does not exist")
		}
		return ChannelProfile{}, fmt.Errorf("load channel: %w", err)
	}

	subscribers, err := b.cachedCount(ctx, SubscriberCountKey(channel.ID), func(ctx context.Context) (int64, error) {
		return b.relations.SubscriberCount(ctx, channel.ID)
	})
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}
	subscribedTo, err := b.cachedCount(ctx, SubscribedToCountKey(channel.ID), func(ctx context.Context) (int64, error) {
		return b.relations.SubscribedToCount(ctx, channel.ID)
	})
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("count subscriptions: %w", err)
	}

	var subscribed bool
	if !viewer.IsAnonymous() {
		subscribed, err = b.relations.IsSubscribed(ctx, viewer.ID, channel.ID)
		if err != nil {
			return ChannelProfile{}, fmt.Errorf("load subscription: %w", err)
		}
	}

	return ChannelProfile{
		ID:                        channel.ID,
		Username:                  channel.Username,
		FullName:                  channel.FullName,
		Avatar:                    channel.Avatar.URL,
		CoverImage:                channel.CoverImage.URL,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              subscribed,
		CreatedAt:                 channel.CreatedAt,
	}, nil
}

// PlaylistDetail returns a playlist with its videos in playlist order. Videos that
// no longer exist or that the viewer cannot see are skipped.
func (b *Builder) PlaylistDetail(ctx context.Context, viewer models.Viewer, playlistID string) (detail PlaylistDetail, err error) {
	ctx, span := logging.StartSpan(ctx, "views.playlist_detail", slog.String("playlist_id", playlistID))
	defer func() { span.Finish(err) }()

	if err := validate.ID(playlistID, "playlist"); err != nil {
		return PlaylistDetail{}, err
	}

	playlist, err := b.playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return PlaylistDetail{}, apperr.New(apperr.NotFound, "playlist not found")
		}
		return PlaylistDetail{}, fmt.Errorf("load playlist: %w", err)
	}

	found, err := b.videos.FindByIDs(ctx, playlist.VideoIDs)
	if err != nil {
		return PlaylistDetail{}, fmt.Errorf("load playlist videos: %w", err)
	}
	owners, err := b.owners(ctx, []string{playlist.OwnerID})
	if err != nil {
		return PlaylistDetail{}, err
	}

	detail = PlaylistDetail{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
		Owner:       ownerProfile(playlist.OwnerID, owners),
		Videos:      make([]PlaylistVideo, 0, len(playlist.VideoIDs)),
	}
	for _, id := range playlist.VideoIDs {
		video, ok := found[id]
		if !ok || !video.VisibleTo(viewer.ID) {
			continue
		}
		detail.Videos = append(detail.Videos, playlistVideo(video))
		detail.TotalViews += video.Views
	}
	detail.TotalVideos = len(detail.Videos)
	return detail, nil
}

// UserPlaylists lists the playlists owned by userID newest first.
func (b *Builder) UserPlaylists(ctx context.Context, userID string, req PageRequest) (page Page[PlaylistSummary], err error) {
	ctx, span := logging.StartSpan(ctx, "views.user_playlists", slog.String("user_id", userID))
	defer func() { span.Finish(err) }()

	if err := validate.ID(userID, "user"); err != nil {
		return Page[PlaylistSummary]{}, err
	}
	req, err = req.Normalize()
	if err != nil {
		return Page[PlaylistSummary]{}, err
	}

	playlists, total, err := b.playlists.ListByOwner(ctx, userID, req.Offset(), req.Limit)
	if err != nil {
		return Page[PlaylistSummary]{}, fmt.Errorf("list playlists: %w", err)
	}

	var videoIDs []string
	for _, playlist := range playlists {
		videoIDs = append(videoIDs, playlist.VideoIDs...)
	}
	found, err := b.videos.FindByIDs(ctx, videoIDs)
	if err != nil {
		return Page[PlaylistSummary]{}, fmt.Errorf("load playlist videos: %w", err)
	}

	items := make([]PlaylistSummary, 0, len(playlists))
	for _, playlist := range playlists {
		summary := PlaylistSummary{
			ID:          playlist.ID,
			Name:        playlist.Name,
			Description: playlist.Description,
			CreatedAt:   playlist.CreatedAt,
			UpdatedAt:   playlist.UpdatedAt,
		}
		for _, id := range playlist.VideoIDs {
			if video, ok := found[id]; ok {
				summary.TotalVideos++
				summary.TotalViews += video.Views
			}
		}
		items = append(items, summary)
	}
	return newPage(items, req, total), nil
}

// WatchHistory lists the viewer's watched videos most recent first, as stored.
// Pagination runs over the stored sequence; entries whose video is gone are skipped.
func (b *Builder) WatchHistory(ctx context.Context, viewer models.Viewer, req PageRequest) (page Page[FeedVideo], err error) {
	ctx, span := logging.StartSpan(ctx, "views.watch_history")
	defer func() { span.Finish(err) }()

	if viewer.IsAnonymous() {
		return Page[FeedVideo]{}, apperr.New(apperr.Unauthorized, "unauthorized request")
	}
	req, err = req.Normalize()
	if err != nil {
		return Page[FeedVideo]{}, err
	}

	ids, total, err := b.users.WatchHistory(ctx, viewer.ID, req.Offset(), req.Limit)
	if err != nil {
		return Page[FeedVideo]{}, fmt.Errorf("load watch history: %w", err)
	}
	found, err := b.videos.FindByIDs(ctx, ids)
	if err != nil {
		return Page[FeedVideo]{}, fmt.Errorf("load history videos: %w", err)
	}

	ownerIDs := make([]string, 0, len(found))
	for _, video := range found {
		ownerIDs = append(ownerIDs, video.OwnerID)
	}
	owners, err := b.owners(ctx, ownerIDs)
	if err != nil {
		return Page[FeedVideo]{}, err
	}

	items := make([]FeedVideo, 0, len(ids))
	for _, id := range ids {
		video, ok := found[id]
		if !ok {
			continue
		}
		items = append(items, feedVideo(video, owners))
	}
	return newPage(items, req, total), nil
}
