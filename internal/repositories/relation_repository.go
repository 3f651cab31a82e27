package repositories

import (
	"context"

	"github.com/vidshare/backend/internal/models"
)

// LikeRepository mutates like edges.
type LikeRepository interface {
	// Toggle removes the edge for (likedBy, target) when it exists and creates it otherwise.
	// The lookup and the mutation happen atomically.
	Toggle(ctx context.Context, like models.Like) (removed bool, edge models.Like, err error)
	// DeleteCommentLike removes likedBy's like on the comment, if any.
	DeleteCommentLike(ctx context.Context, commentID, likedBy string) error
}

// SubscriptionRepository mutates subscription edges.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, sub models.Subscription) (removed bool, edge models.Subscription, err error)
}

// RelationshipIndex answers read queries over like and subscription edges.
type RelationshipIndex interface {
	CommentLikeCounts(ctx context.Context, commentIDs []string) (map[string]int64, error)
	// LikedBy reports which of ids the viewer has liked for the given target kind.
	LikedBy(ctx context.Context, viewerID string, kind models.LikeTarget, ids []string) (map[string]bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	SubscriberCount(ctx context.Context, channelID string) (int64, error)
	SubscribedToCount(ctx context.Context, subscriberID string) (int64, error)
}
