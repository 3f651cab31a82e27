package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/services"
	"github.com/vidshare/backend/internal/views"
)

// UserHandler implements registration, account and channel endpoints.
type UserHandler struct {
	Users     UserService
	Views     ViewBuilder
	Limiter   RateLimiter
	UploadDir string
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register handles POST /api/v1/users/register. The body is multipart with an
// avatar file and an optional coverImage file.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "register") {
		respondTooManyRequests(ctx, w)
		return
	}

	form, err := parseUploads(r, h.UploadDir, "avatar", "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.Cleanup()

	viewer, err := h.Users.Register(ctx, services.RegisterInput{
		Username:   form.Value("username"),
		Email:      form.Value("email"),
		FullName:   form.Value("fullName"),
		Password:   r.FormValue("password"),
		AvatarPath: form.File("avatar"),
		CoverPath:  form.File("coverImage"),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusCreated, viewer, "user registered successfully")
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondData(ctx, w, http.StatusOK, auth.ViewerFromContext(ctx), "current user fetched successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.ChangePassword(ctx, auth.ViewerFromContext(ctx), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateAccount handles PATCH /api/v1/users/account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	viewer, err := h.Users.UpdateAccount(ctx, auth.ViewerFromContext(ctx), req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, viewer, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := parseUploads(r, h.UploadDir, "avatar")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.Cleanup()

	viewer, err := h.Users.UpdateAvatar(ctx, auth.ViewerFromContext(ctx), form.File("avatar"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, viewer, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := parseUploads(r, h.UploadDir, "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.Cleanup()

	viewer, err := h.Users.UpdateCoverImage(ctx, auth.ViewerFromContext(ctx), form.File("coverImage"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, viewer, "cover image updated successfully")
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Views.ChannelProfile(ctx, auth.ViewerFromContext(ctx), r.PathValue("username"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// History handles GET /api/v1/users/history.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := views.ParsePageRequest(r.URL.Query())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	page, err := h.Views.WatchHistory(ctx, auth.ViewerFromContext(ctx), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, page, "watch history fetched successfully")
}
