package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/models"
)

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := TokenFromRequest(req); got != "" {
		t.Fatalf("expected empty token got %q", got)
	}

	req.Header.Set("Authorization", "Bearer header-token")
	if got := TokenFromRequest(req); got != "header-token" {
		t.Fatalf("expected header token got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	if got := TokenFromRequest(req); got != "cookie-token" {
		t.Fatalf("expected cookie to take precedence, got %q", got)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Authorization", "Basic abc")
	if got := TokenFromRequest(other); got != "" {
		t.Fatalf("expected non-bearer header to be ignored, got %q", got)
	}
}

func TestViewerResolverResolve(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	resolver := NewViewerResolver(f.codec, f.store.Users())

	tokens, err := f.manager.Issue(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	viewer, err := resolver.Resolve(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if viewer.ID != f.user.ID || viewer.Username != "alice" || viewer.IsAnonymous() {
		t.Fatalf("unexpected viewer %+v", viewer)
	}

	if _, err := resolver.Resolve(ctx, ""); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected no credential, got %v", err)
	}
	if _, err := resolver.Resolve(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("refresh tokens must not authenticate requests, got %v", err)
	}

	f.codec.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := resolver.Resolve(ctx, tokens.AccessToken); apperr.KindOf(err) != apperr.Unauthorized {
		t.Fatalf("expected expired access token to be unauthorized, got %v", err)
	}
}

func TestViewerResolverAccessTokenSurvivesRevoke(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	resolver := NewViewerResolver(f.codec, f.store.Users())

	tokens, err := f.manager.Issue(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := f.manager.Revoke(ctx, f.user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := resolver.Resolve(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("access tokens stay valid until expiry, got %v", err)
	}
}

func TestViewerContext(t *testing.T) {
	ctx := context.Background()
	if !ViewerFromContext(ctx).IsAnonymous() {
		t.Fatal("expected anonymous viewer by default")
	}

	f := newManagerFixture(t)
	ctx = WithViewer(ctx, viewerOf(f))
	if got := ViewerFromContext(ctx); got.ID != f.user.ID {
		t.Fatalf("expected viewer %s got %s", f.user.ID, got.ID)
	}
}

func TestTokenCodecRejectsEmptySecrets(t *testing.T) {
	if _, err := NewTokenCodec(TokenConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour}); err == nil {
		t.Fatal("expected error for empty secrets")
	}
}

func TestTokenCodecTokensAreUnique(t *testing.T) {
	codec := newTestCodec(t)
	claims := Claims{RegisteredClaims: jwtSubject("user-1")}

	first, _, err := codec.Sign(claims, KindRefresh)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	second, _, err := codec.Sign(claims, KindRefresh)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if first == second {
		t.Fatal("tokens minted in the same second must differ")
	}

	verified, err := codec.Verify(first, KindRefresh)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.UserID() != "user-1" || verified.Kind != KindRefresh {
		t.Fatalf("unexpected claims %+v", verified)
	}
}

func viewerOf(f managerFixture) models.Viewer {
	return models.ViewerFromUser(f.user)
}
