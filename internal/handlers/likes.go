package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/views"
)

// LikeHandler implements the like toggles and the liked-videos listing.
type LikeHandler struct {
	Likes LikeService
	Views ViewBuilder
}

// Toggle returns a handler toggling a like on the target named by the id path value.
func (h LikeHandler) Toggle(kind models.LikeTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		result, err := h.Likes.Toggle(ctx, auth.ViewerFromContext(ctx), kind, r.PathValue("id"))
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		message := "liked " + string(kind)
		if result.Removed {
			message = "unliked " + string(kind)
		}
		respondData(ctx, w, http.StatusOK, result, message)
	}
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := views.ParsePageRequest(r.URL.Query())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	page, err := h.Views.LikedVideos(ctx, auth.ViewerFromContext(ctx), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, page, "liked videos fetched successfully")
}
