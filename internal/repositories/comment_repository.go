package repositories

import (
	"context"
	"time"

	"github.com/vidshare/backend/internal/models"
)

// CommentRepository exposes data access for comments on videos.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	// ListForVideo returns a newest-first window of a video's comments and the total count.
	ListForVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, int, error)
}
