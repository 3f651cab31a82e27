package repositories

import (
	"context"

	"github.com/vidshare/backend/internal/models"
)

// VideoQuery filters and windows a video listing. Results are ordered by
// creation time descending, ties broken by id descending.
type VideoQuery struct {
	OwnerID string
	// IDs restricts the listing to the given ids when RestrictToIDs is set.
	IDs           []string
	RestrictToIDs bool
	PublishedOnly bool
	// VisibleTo, together with PublishedOnly, also admits the unpublished
	// videos owned by this user.
	VisibleTo string
	// LikedBy restricts the listing to videos this user has liked.
	LikedBy string
	Offset  int
	Limit   int
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	List(ctx context.Context, query VideoQuery) ([]models.Video, int, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}
