package services

import (
	"context"
	"strings"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// CommentLikeRemover drops a user's like on a comment.
type CommentLikeRemover interface {
	DeleteCommentLike(ctx context.Context, commentID, likedBy string) error
}

// CommentService manages comments on videos.
type CommentService struct {
	comments repositories.CommentRepository
	videos   repositories.VideoRepository
	likes    CommentLikeRemover
	clock    clock
}

// NewCommentService constructs a CommentService.
func NewCommentService(comments repositories.CommentRepository, videos repositories.VideoRepository, likes CommentLikeRemover) *CommentService {
	return &CommentService{comments: comments, videos: videos, likes: likes, clock: defaultClock()}
}

// Create attaches a comment by the viewer to an existing video.
func (s *CommentService) Create(ctx context.Context, viewer models.Viewer, videoID, content string) (models.Comment, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Comment{}, err
	}
	if err := validate.ID(videoID, "video"); err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.New(apperr.BadRequest, "content is required")
	}

	if _, err := visibleVideo(ctx, s.videos, viewer, videoID); err != nil {
		return models.Comment{}, err
	}

	now := s.clock.now()
	comment := models.Comment{
		ID:        s.clock.newID(),
		Content:   content,
		VideoID:   videoID,
		OwnerID:   viewer.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, notFound(err, "video not found", "create comment")
	}
	return comment, nil
}

// Update replaces the content of a comment owned by the viewer.
func (s *CommentService) Update(ctx context.Context, viewer models.Viewer, commentID, content string) (models.Comment, error) {
	comment, err := s.owned(ctx, viewer, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.New(apperr.BadRequest, "content is required")
	}

	updated, err := s.comments.UpdateContent(ctx, comment.ID, content, s.clock.now())
	if err != nil {
		return models.Comment{}, notFound(err, "comment not found", "update comment")
	}
	return updated, nil
}

// Delete removes a comment owned by the viewer along with the viewer's own
// like on it. Likes left by other users are kept.
func (s *CommentService) Delete(ctx context.Context, viewer models.Viewer, commentID string) error {
	comment, err := s.owned(ctx, viewer, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return notFound(err, "comment not found", "delete comment")
	}
	if err := s.likes.DeleteCommentLike(ctx, comment.ID, viewer.ID); err != nil {
		return notFound(err, "comment not found", "delete comment like")
	}
	return nil
}

func (s *CommentService) owned(ctx context.Context, viewer models.Viewer, commentID string) (models.Comment, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Comment{}, err
	}
	if err := validate.ID(commentID, "comment"); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, notFound(err, "comment not found", "load comment")
	}
	if err := AssertOwner(comment.OwnerID, viewer); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
