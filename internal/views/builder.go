// Package views builds the viewer-aware read models served by the API. Every
// recipe joins a primary listing with owners and relationship edges and
// annotates the result relative to the requesting viewer.
package views

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

// UserReader loads user records.
type UserReader interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	WatchHistory(ctx context.Context, userID string, offset, limit int) ([]string, int, error)
}

// VideoReader loads videos.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	List(ctx context.Context, query repositories.VideoQuery) ([]models.Video, int, error)
}

// CommentReader lists comments.
type CommentReader interface {
	ListForVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, int, error)
}

// PlaylistReader loads playlists.
type PlaylistReader interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]models.Playlist, int, error)
}

// RelationshipIndex answers edge queries.
type RelationshipIndex interface {
	CommentLikeCounts(ctx context.Context, commentIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, viewerID string, kind models.LikeTarget, ids []string) (map[string]bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	SubscriberCount(ctx context.Context, channelID string) (int64, error)
	SubscribedToCount(ctx context.Context, subscriberID string) (int64, error)
}

// SearchIndex resolves free text to matching video ids.
type SearchIndex interface {
	Search(ctx context.Context, text string) ([]string, error)
}

// CountCache memoises relationship counts. A miss is reported with ok=false.
type CountCache interface {
	Get(ctx context.Context, key string) (value int64, ok bool, err error)
	Set(ctx context.Context, key string, value int64) error
}

// Dependencies groups the collaborators of a Builder. Counts is optional.
type Dependencies struct {
	Users     UserReader
	Videos    VideoReader
	Comments  CommentReader
	Playlists PlaylistReader
	Relations RelationshipIndex
	Search    SearchIndex
	Counts    CountCache
}

// Builder assembles the read models.
type Builder struct {
	users     UserReader
	videos    VideoReader
	comments  CommentReader
	playlists PlaylistReader
	relations RelationshipIndex
	search    SearchIndex
	counts    CountCache
}

// NewBuilder constructs a Builder. Every dependency except Counts is required.
func NewBuilder(deps Dependencies) *Builder {
	if deps.Users == nil || deps.Videos == nil || deps.Comments == nil || deps.Playlists == nil ||
		deps.Relations == nil || deps.Search == nil {
		panic("views: builder dependencies must not be nil")
	}
	return &Builder{
		users:     deps.Users,
		videos:    deps.Videos,
		comments:  deps.Comments,
		playlists: deps.Playlists,
		relations: deps.Relations,
		search:    deps.Search,
		counts:    deps.Counts,
	}
}

// SubscriberCountKey is the cache key of a channel's subscriber count.
func SubscriberCountKey(channelID string) string {
	return fmt.Sprintf("channel:%s:subscribers", channelID)
}

// SubscribedToCountKey is the cache key of the number of channels a user follows.
func SubscribedToCountKey(userID string) string {
	return fmt.Sprintf("channel:%s:subscribed_to", userID)
}

// cachedCount reads key through the count cache, computing and storing it on a miss.
// Cache failures are logged and fall through to load.
func (b *Builder) cachedCount(ctx context.Context, key string, load func(context.Context) (int64, error)) (int64, error) {
	if b.counts == nil {
		return load(ctx)
	}

	logger := logging.FromContext(ctx)
	if value, ok, err := b.counts.Get(ctx, key); err != nil {
		logger.Warn("count cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		return value, nil
	}

	value, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if err := b.counts.Set(ctx, key, value); err != nil {
		logger.Warn("count cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}

func (b *Builder) owners(ctx context.Context, ids []string) (map[string]models.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	owners, err := b.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	return owners, nil
}
