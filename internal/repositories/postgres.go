package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, avatar_asset_id,
        cover_url, cover_asset_id, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, avatar_asset_id,
            cover_url, cover_asset_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, strings.ToLower(user.Username), strings.ToLower(user.Email), user.FullName, user.Password,
		user.Avatar.URL, user.Avatar.AssetID, user.CoverImage.URL, user.CoverImage.AssetID,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "select user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByLogin fetches a user whose username or email equals identifier. A
// username match wins over an email match.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return r.findOne(ctx, "select user by login",
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1
		ORDER BY (username = $1) DESC, id LIMIT 1`, identifier)
}

// FindByUsername fetches a user by username, ignoring case.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.findOne(ctx, "select user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, op, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// FindByIDs loads the users matching ids, keyed by id. Unknown ids are omitted.
func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query users by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return out, nil
}

// UpdateAccount changes the editable profile fields of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string, updatedAt time.Time) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, strings.ToLower(email), updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		if mapped := translatePgError(err); mapped != nil {
			return models.User{}, mapped
		}
		return models.User{}, fmt.Errorf("update user account: %w", err)
	}
	return user, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return r.exec(ctx, "update user password",
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, updatedAt)
}

// UpdateAvatar replaces the avatar asset reference.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, avatar models.Asset, updatedAt time.Time) error {
	return r.exec(ctx, "update user avatar",
		`UPDATE users SET avatar_url = $2, avatar_asset_id = $3, updated_at = $4 WHERE id = $1`,
		id, avatar.URL, avatar.AssetID, updatedAt)
}

// UpdateCoverImage replaces the cover image asset reference.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, cover models.Asset, updatedAt time.Time) error {
	return r.exec(ctx, "update user cover image",
		`UPDATE users SET cover_url = $2, cover_asset_id = $3, updated_at = $4 WHERE id = $1`,
		id, cover.URL, cover.AssetID, updatedAt)
}

func (r *PostgresUserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PushWatchHistory appends a watch entry for the user.
func (r *PostgresUserRepository) PushWatchHistory(ctx context.Context, userID, videoID string, watchedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
    `, userID, videoID, watchedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert watch history: %w", err)
	}
	return nil
}

// WatchHistory returns a most-recent-first window of the user's watched video ids.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string, offset, limit int) ([]string, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM watch_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watch history: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT video_id
        FROM watch_history
        WHERE user_id = $1
        ORDER BY watched_at DESC, seq DESC
        OFFSET $2 LIMIT $3
    `, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("scan watch history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate watch history: %w", err)
	}

	return ids, total, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user    models.User
		refresh sql.NullString
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar.URL, &user.Avatar.AssetID, &user.CoverImage.URL, &user.CoverImage.AssetID,
		&refresh, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	user.RefreshCredential = refresh.String
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

const videoColumns = `id, owner_id, video_url, video_asset_id, thumbnail_url, thumbnail_asset_id,
        title, description, duration, views, is_published, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, video_asset_id, thumbnail_url, thumbnail_asset_id,
            title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.VideoFile.URL, video.VideoFile.AssetID, video.Thumbnail.URL, video.Thumbnail.AssetID,
		video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID loads a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// FindByIDs loads the videos matching ids, keyed by id. Unknown ids are omitted.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	out := make(map[string]models.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query videos by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out[video.ID] = video
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return out, nil
}

// List returns a window of videos matching query in reverse chronological order, plus the total match count.
func (r *PostgresVideoRepository) List(ctx context.Context, query VideoQuery) ([]models.Video, int, error) {
	if query.RestrictToIDs && len(query.IDs) == 0 {
		return nil, 0, nil
	}

	var (
		clauses []string
		args    []any
	)
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if query.RestrictToIDs {
		args = append(args, query.IDs)
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	switch {
	case query.PublishedOnly && query.VisibleTo != "":
		args = append(args, query.VisibleTo)
		clauses = append(clauses, fmt.Sprintf("(is_published = TRUE OR owner_id = $%d)", len(args)))
	case query.PublishedOnly:
		clauses = append(clauses, "is_published = TRUE")
	}
	if query.LikedBy != "" {
		args = append(args, query.LikedBy)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM likes l WHERE l.video_id = videos.id AND l.liked_by = $%d)", len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	pageArgs := append(append([]any{}, args...), query.Offset, query.Limit)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos
        %s
        ORDER BY created_at DESC, id DESC
        OFFSET $%d LIMIT $%d
    `, videoColumns, where, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// Update writes the mutable fields of a video. Ownership is never changed.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2,
            description = $3,
            thumbnail_url = $4,
            thumbnail_asset_id = $5,
            is_published = $6,
            updated_at = $7
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail.URL, video.Thumbnail.AssetID, video.IsPublished, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter of a video by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.VideoFile.URL, &video.VideoFile.AssetID,
		&video.Thumbnail.URL, &video.Thumbnail.AssetID, &video.Title, &video.Description,
		&video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return models.Video{}, err
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FindByID loads a single comment.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, nil
}

// UpdateContent replaces the text of a comment.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+commentColumns, id, content, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForVideo returns a newest-first window of comments on a video.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, id DESC
        OFFSET $2 LIMIT $3
    `, videoID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, total, nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	return comment, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
