package services

import (
	"context"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// ToggleResult reports the outcome of a like toggle. Like is set only when the
// toggle created an edge.
type ToggleResult struct {
	Removed bool         `json:"removed"`
	Like    *models.Like `json:"like,omitempty"`
}

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	likes    repositories.LikeRepository
	videos   repositories.VideoRepository
	comments repositories.CommentRepository
	clock    clock
}

// NewLikeService constructs a LikeService.
func NewLikeService(likes repositories.LikeRepository, videos repositories.VideoRepository, comments repositories.CommentRepository) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, clock: defaultClock()}
}

// Toggle removes the viewer's like on the target when present and creates it otherwise.
// Video and comment targets must exist and belong to a video the viewer can
// see; tweets are not checked.
func (s *LikeService) Toggle(ctx context.Context, viewer models.Viewer, kind models.LikeTarget, targetID string) (ToggleResult, error) {
	if err := requireViewer(viewer); err != nil {
		return ToggleResult{}, err
	}
	if !kind.Valid() {
		return ToggleResult{}, apperr.New(apperr.BadRequest, "unknown like target")
	}
	if err := validate.ID(targetID, string(kind)); err != nil {
		return ToggleResult{}, err
	}

	switch kind {
	case models.LikeTargetVideo:
		if _, err := visibleVideo(ctx, s.videos, viewer, targetID); err != nil {
			return ToggleResult{}, err
		}
	case models.LikeTargetComment:
		comment, err := s.comments.FindByID(ctx, targetID)
		if err != nil {
			return ToggleResult{}, notFound(err, "comment not found", "load comment")
		}
		if _, err := visibleVideo(ctx, s.videos, viewer, comment.VideoID); err != nil {
			if apperr.KindOf(err) == apperr.NotFound {
				return ToggleResult{}, apperr.New(apperr.NotFound, "comment not found")
			}
			return ToggleResult{}, err
		}
	}

	like := models.NewLike(s.clock.newID(), viewer.ID, kind, targetID, s.clock.now())
	removed, edge, err := s.likes.Toggle(ctx, like)
	if err != nil {
		return ToggleResult{}, notFound(err, string(kind)+" not found", "toggle like")
	}
	if removed {
		return ToggleResult{Removed: true}, nil
	}
	return ToggleResult{Like: &edge}, nil
}
