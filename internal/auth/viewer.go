package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

const (
	// AccessTokenCookie names the cookie carrying the access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie names the cookie carrying the refresh token.
	RefreshTokenCookie = "refreshToken"
)

type viewerKey struct{}

// ViewerResolver turns a presented access token into the viewer it identifies.
type ViewerResolver struct {
	codec *TokenCodec
	users UserFinder
}

// NewViewerResolver constructs a resolver that verifies tokens with codec and loads profiles from users.
func NewViewerResolver(codec *TokenCodec, users UserFinder) *ViewerResolver {
	return &ViewerResolver{codec: codec, users: users}
}

// Resolve verifies token and returns the viewer with the profile currently stored.
func (r *ViewerResolver) Resolve(ctx context.Context, token string) (models.Viewer, error) {
	if token == "" {
		return models.Anonymous, ErrNoCredential
	}

	claims, err := r.codec.Verify(token, KindAccess)
	if err != nil {
		logging.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return models.Anonymous, ErrInvalidAccessToken
	}

	user, err := r.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Anonymous, ErrInvalidAccessToken
		}
		return models.Anonymous, fmt.Errorf("load viewer: %w", err)
	}

	return models.ViewerFromUser(user), nil
}

// TokenFromRequest extracts the access token from the accessToken cookie, falling
// back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// WithViewer stores the resolved viewer on the context.
func WithViewer(ctx context.Context, viewer models.Viewer) context.Context {
	ctx = context.WithValue(ctx, viewerKey{}, viewer)
	return logging.WithViewerID(ctx, viewer.ID)
}

// ViewerFromContext returns the viewer stored on ctx, or the anonymous viewer.
func ViewerFromContext(ctx context.Context) models.Viewer {
	if viewer, ok := ctx.Value(viewerKey{}).(models.Viewer); ok {
		return viewer
	}
	return models.Anonymous
}
