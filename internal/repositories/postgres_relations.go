package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/models"
)

var toggleTxOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}

// likeTargetColumn maps a target kind onto its column in the likes table.
func likeTargetColumn(kind models.LikeTarget) (string, error) {
	switch kind {
	case models.LikeTargetVideo:
		return "video_id", nil
	case models.LikeTargetComment:
		return "comment_id", nil
	case models.LikeTargetTweet:
		return "tweet_id", nil
	}
	return "", fmt.Errorf("unknown like target %q", kind)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for like edges.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle deletes the viewer's like on the target when present and inserts it otherwise,
// inside a single serializable transaction that is retried on contention.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (bool, models.Like, error) {
	kind, targetID, ok := like.Target()
	if !ok {
		return false, models.Like{}, errors.New("like must reference exactly one target")
	}
	column, err := likeTargetColumn(kind)
	if err != nil {
		return false, models.Like{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	deleteQuery := fmt.Sprintf(`DELETE FROM likes WHERE liked_by = $1 AND %s = $2 RETURNING id`, column)

	var removed bool
	err = crdbpgxv5.ExecuteTx(ctx, conn, toggleTxOptions, func(tx pgx.Tx) error {
		removed = false

		var id string
		err := tx.QueryRow(ctx, deleteQuery, like.LikedBy, targetID).Scan(&id)
		switch {
		case err == nil:
			removed = true
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO likes (id, liked_by, video_id, comment_id, tweet_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT DO NOTHING
            RETURNING id
        `, like.ID, like.LikedBy, nullable(like.VideoID), nullable(like.CommentID), nullable(like.TweetID), like.CreatedAt).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		// A concurrent toggle created the edge first; this toggle removes it.
		if _, err := tx.Exec(ctx, deleteQuery, like.LikedBy, targetID); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return false, models.Like{}, mapped
		}
		return false, models.Like{}, fmt.Errorf("toggle like: %w", err)
	}

	if removed {
		return true, models.Like{}, nil
	}
	return false, like, nil
}

// DeleteCommentLike removes the like likedBy placed on a comment, if any.
func (r *PostgresLikeRepository) DeleteCommentLike(ctx context.Context, commentID, likedBy string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM likes WHERE comment_id = $1 AND liked_by = $2`, commentID, likedBy); err != nil {
		return fmt.Errorf("delete comment like: %w", err)
	}
	return nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes or unsubscribes the subscriber from the channel.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (bool, models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const deleteQuery = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2 RETURNING id`

	var removed bool
	err = crdbpgxv5.ExecuteTx(ctx, conn, toggleTxOptions, func(tx pgx.Tx) error {
		removed = false

		var id string
		err := tx.QueryRow(ctx, deleteQuery, sub.SubscriberID, sub.ChannelID).Scan(&id)
		switch {
		case err == nil:
			removed = true
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT DO NOTHING
            RETURNING id
        `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if _, err := tx.Exec(ctx, deleteQuery, sub.SubscriberID, sub.ChannelID); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return false, models.Subscription{}, mapped
		}
		return false, models.Subscription{}, fmt.Errorf("toggle subscription: %w", err)
	}

	if removed {
		return true, models.Subscription{}, nil
	}
	return false, sub, nil
}

// PostgresRelationshipIndex answers relationship queries with SQL aggregates.
type PostgresRelationshipIndex struct {
	pool db.Pool
}

// NewPostgresRelationshipIndex constructs a relationship index backed by PostgreSQL.
func NewPostgresRelationshipIndex(pool db.Pool) *PostgresRelationshipIndex {
	return &PostgresRelationshipIndex{pool: pool}
}

// CommentLikeCounts returns the like count of every comment in ids. Comments
// without likes are present with a zero count.
func (x *PostgresRelationshipIndex) CommentLikeCounts(ctx context.Context, commentIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(commentIDs))
	for _, id := range commentIDs {
		counts[id] = 0
	}
	if len(commentIDs) == 0 {
		return counts, nil
	}

	conn, err := x.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT comment_id, COUNT(*)
        FROM likes
        WHERE comment_id = ANY($1)
        GROUP BY comment_id
    `, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("count comment likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan comment like count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment like counts: %w", err)
	}
	return counts, nil
}

// LikedBy reports which of ids viewerID has liked. An empty viewer likes nothing.
func (x *PostgresRelationshipIndex) LikedBy(ctx context.Context, viewerID string, kind models.LikeTarget, ids []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(ids))
	if viewerID == "" || len(ids) == 0 {
		return liked, nil
	}
	column, err := likeTargetColumn(kind)
	if err != nil {
		return nil, err
	}

	conn, err := x.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %[1]s
        FROM likes
        WHERE liked_by = $1 AND %[1]s = ANY($2)
    `, column), viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("query viewer likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan viewer like: %w", err)
		}
		liked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewer likes: %w", err)
	}
	return liked, nil
}

// IsSubscribed reports whether subscriberID follows channelID.
func (x *PostgresRelationshipIndex) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == "" {
		return false, nil
	}

	conn, err := x.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
    `, subscriberID, channelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query subscription: %w", err)
	}
	return exists, nil
}

// SubscriberCount counts the subscribers of a channel.
func (x *PostgresRelationshipIndex) SubscriberCount(ctx context.Context, channelID string) (int64, error) {
	return x.count(ctx, "count subscribers", `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// SubscribedToCount counts the channels a user subscribes to.
func (x *PostgresRelationshipIndex) SubscribedToCount(ctx context.Context, subscriberID string) (int64, error) {
	return x.count(ctx, "count subscriptions", `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (x *PostgresRelationshipIndex) count(ctx context.Context, op, query string, arg string) (int64, error) {
	conn, err := x.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ RelationshipIndex = (*PostgresRelationshipIndex)(nil)
