package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
)

// ViewerResolver turns an access token into the requesting viewer.
type ViewerResolver interface {
	Resolve(ctx context.Context, token string) (models.Viewer, error)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate resolves the request's access token and stores the viewer on the
// request context. When required is false a request without any credential
// proceeds as the anonymous viewer; a credential that fails verification is
// rejected either way.
func Authenticate(resolver ViewerResolver, required bool, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := resolver.Resolve(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				if !required && errors.Is(err, auth.ErrNoCredential) {
					next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), models.Anonymous)))
					return
				}
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithViewer(r.Context(), viewer)))
		})
	}
}
