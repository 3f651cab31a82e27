package handlers

import (
	"net/http"
	"strconv"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/services"
	"github.com/vidshare/backend/internal/views"
)

// VideoHandler provides endpoints for publishing and browsing videos.
type VideoHandler struct {
	Videos    VideoService
	Views     ViewBuilder
	UploadDir string
}

// Feed handles GET /api/v1/videos. Supported query parameters are query,
// userId, page and limit.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()
	req, err := views.ParsePageRequest(values)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.Views.VideoFeed(ctx, auth.ViewerFromContext(ctx), views.FeedParams{
		Query:   values.Get("query"),
		OwnerID: values.Get("userId"),
	}, req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, page, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos. The body is multipart with videoFile
// and thumbnail files.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := parseUploads(r, h.UploadDir, "videoFile", "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.Cleanup()

	duration, err := parseDuration(form.Value("duration"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Publish(ctx, auth.ViewerFromContext(ctx), services.PublishInput{
		Title:         form.Value("title"),
		Description:   form.Value("description"),
		Duration:      duration,
		VideoPath:     form.File("videoFile"),
		ThumbnailPath: form.File("thumbnail"),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Videos.Watch(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. A thumbnail file is optional.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := parseUploads(r, h.UploadDir, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.Cleanup()

	video, err := h.Videos.Update(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId"), services.UpdateVideoInput{
		Title:         form.Value("title"),
		Description:   form.Value("description"),
		ThumbnailPath: form.File("thumbnail"),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Videos.Delete(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Videos.TogglePublish(ctx, auth.ViewerFromContext(ctx), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, video, "publish status toggled successfully")
}

func parseDuration(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.New(apperr.BadRequest, "invalid duration")
	}
	return d, nil
}
