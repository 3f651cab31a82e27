package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
)

// CookieOptions controls the session cookies. Cookies are always HttpOnly,
// Secure and SameSite=Strict.
type CookieOptions struct {
	Domain string
}

// AuthHandler implements the session endpoints.
type AuthHandler struct {
	Sessions SessionManager
	Limiter  RateLimiter
	Cookies  CookieOptions
	NowFunc  func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User         models.Viewer `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "login") {
		respondTooManyRequests(ctx, w)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "username or email is required"))
		return
	}
	if req.Password == "" {
		respondError(ctx, w, apperr.New(apperr.BadRequest, "password is required"))
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         models.ViewerFromUser(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := auth.ViewerFromContext(ctx)

	if err := h.Sessions.Revoke(ctx, viewer.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token is read
// from its cookie, falling back to the JSON body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "refresh") {
		respondTooManyRequests(ctx, w)
		return
	}

	token := ""
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		respondError(ctx, w, auth.ErrNoCredential)
		return
	}

	tokens, err := h.Sessions.Rotate(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokensResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "access token refreshed")
}

func (h AuthHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	now := h.now()
	http.SetCookie(w, h.cookie(auth.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt.Sub(now)))
	http.SetCookie(w, h.cookie(auth.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt.Sub(now)))
}

func (h AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(auth.AccessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(auth.RefreshTokenCookie, "", -1))
}

func (h AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.Cookies.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
