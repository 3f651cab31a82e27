package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/views"
)

// PlaylistHandler implements the playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistService
	Views     ViewBuilder
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Playlists.Create(ctx, auth.ViewerFromContext(ctx), req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.Views.PlaylistDetail(ctx, auth.ViewerFromContext(ctx), r.PathValue("playlistId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, detail, "playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Playlists.Update(ctx, auth.ViewerFromContext(ctx), r.PathValue("playlistId"), req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Playlists.Delete(ctx, auth.ViewerFromContext(ctx), r.PathValue("playlistId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Playlists.AddVideo(ctx, auth.ViewerFromContext(ctx), r.PathValue("playlistId"), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Playlists.RemoveVideo(ctx, auth.ViewerFromContext(ctx), r.PathValue("playlistId"), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := views.ParsePageRequest(r.URL.Query())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	page, err := h.Views.UserPlaylists(ctx, r.PathValue("userId"), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, page, "playlists fetched successfully")
}
