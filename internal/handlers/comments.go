package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/views"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments CommentService
	Views    ViewBuilder
}

type commentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := views.ParsePageRequest(r.URL.Query())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	page, err := h.Views.CommentThread(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId"), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, page, "comments fetched successfully")
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Comments.Create(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Comments.Update(ctx, auth.ViewerFromContext(ctx), r.PathValue("commentId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Comments.Delete(ctx, auth.ViewerFromContext(ctx), r.PathValue("commentId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}
