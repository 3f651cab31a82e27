package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/middleware"
	"github.com/vidshare/backend/internal/models"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions      SessionManager
	Resolver      ViewerResolver
	Views         ViewBuilder
	Users         UserService
	Videos        VideoService
	Comments      CommentService
	Likes         LikeService
	Subscriptions SubscriptionService
	Playlists     PlaylistService
	Limiter       RateLimiter
	Cookies       CookieOptions
	UploadDir     string
	HealthChecks  map[string]HealthCheck
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.HealthChecks}
	sessions := AuthHandler{Sessions: deps.Sessions, Limiter: deps.Limiter, Cookies: deps.Cookies}
	users := UserHandler{Users: deps.Users, Views: deps.Views, Limiter: deps.Limiter, UploadDir: deps.UploadDir}
	videos := VideoHandler{Videos: deps.Videos, Views: deps.Views, UploadDir: deps.UploadDir}
	comments := CommentHandler{Comments: deps.Comments, Views: deps.Views}
	likes := LikeHandler{Likes: deps.Likes, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Views: deps.Views}

	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		respondError(r.Context(), w, err)
	}
	required := middleware.Authenticate(deps.Resolver, true, onError)
	optional := middleware.Authenticate(deps.Resolver, false, onError)

	private := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, required(h)) }
	public := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, optional(h)) }

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("GET /api/v1/healthcheck", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", sessions.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", sessions.Refresh)
	private("POST /api/v1/users/logout", sessions.Logout)
	private("GET /api/v1/users/me", users.Me)
	private("POST /api/v1/users/change-password", users.ChangePassword)
	private("PATCH /api/v1/users/account", users.UpdateAccount)
	private("PATCH /api/v1/users/avatar", users.UpdateAvatar)
	private("PATCH /api/v1/users/cover-image", users.UpdateCoverImage)
	public("GET /api/v1/users/channel/{username}", users.Channel)
	private("GET /api/v1/users/history", users.History)

	public("GET /api/v1/videos", videos.Feed)
	private("POST /api/v1/videos", videos.Publish)
	public("GET /api/v1/videos/{videoId}", videos.Get)
	private("PATCH /api/v1/videos/{videoId}", videos.Update)
	private("DELETE /api/v1/videos/{videoId}", videos.Delete)
	private("PATCH /api/v1/videos/{videoId}/publish", videos.TogglePublish)

	public("GET /api/v1/comments/{videoId}", comments.List)
	private("POST /api/v1/comments/{videoId}", comments.Create)
	private("PATCH /api/v1/comments/c/{commentId}", comments.Update)
	private("DELETE /api/v1/comments/c/{commentId}", comments.Delete)

	private("POST /api/v1/likes/videos/{id}", likes.Toggle(models.LikeTargetVideo))
	private("POST /api/v1/likes/comments/{id}", likes.Toggle(models.LikeTargetComment))
	private("POST /api/v1/likes/tweets/{id}", likes.Toggle(models.LikeTargetTweet))
	private("GET /api/v1/likes/videos", likes.LikedVideos)

	private("POST /api/v1/subscriptions/{channelId}", subscriptions.Toggle)

	private("POST /api/v1/playlists", playlists.Create)
	public("GET /api/v1/playlists/user/{userId}", playlists.ListForUser)
	public("GET /api/v1/playlists/{playlistId}", playlists.Get)
	private("PATCH /api/v1/playlists/{playlistId}", playlists.Update)
	private("DELETE /api/v1/playlists/{playlistId}", playlists.Delete)
	private("PATCH /api/v1/playlists/{playlistId}/videos/{videoId}", playlists.AddVideo)
	private("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", playlists.RemoveVideo)
}
