package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
)

func TestRegisterAndLoginSetSecureCookies(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.signUp("alice")

	if sess.viewer.Username != "alice" || sess.viewer.Avatar.IsZero() {
		t.Fatalf("unexpected viewer %+v", sess.viewer)
	}
	names := map[string]*http.Cookie{}
	for _, c := range sess.cookies {
		names[c.Name] = c
	}
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c, ok := names[name]
		if !ok {
			t.Fatalf("missing cookie %s", name)
		}
		if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode || c.Path != "/" || c.MaxAge <= 0 {
			t.Fatalf("cookie %s has unexpected attributes %+v", name, c)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(names[auth.AccessTokenCookie])
	rec, env := srv.do(req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me via cookie: %d %s", rec.Code, env.Message)
	}
	me := decodeData[models.Viewer](t, env)
	if me.ID != sess.viewer.ID {
		t.Fatalf("expected %s got %s", sess.viewer.ID, me.ID)
	}
	if strings.Contains(string(env.Data), "password") {
		t.Fatal("viewer payload must not carry credentials")
	}
}

func TestRegisterConflict(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signUp("alice")

	rec, env := srv.multipart(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "ALICE",
		"email":    "other@example.com",
		"fullName": "Other",
		"password": "password123",
	}, map[string]string{"avatar": "a.png"}, nil)
	if rec.Code != http.StatusConflict || env.Success || env.Errors == nil {
		t.Fatalf("expected conflict envelope, got %d %+v", rec.Code, env)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signUp("alice")

	cases := []struct {
		body   loginRequest
		status int
	}{
		{loginRequest{Password: "password123"}, http.StatusBadRequest},
		{loginRequest{Email: "nobody@example.com", Password: "password123"}, http.StatusNotFound},
		{loginRequest{Email: "ALICE@example.com", Password: "wrong"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec, _ := srv.json(http.MethodPost, "/api/v1/users/login", tc.body, nil)
		if rec.Code != tc.status {
			t.Fatalf("login %+v: expected %d got %d", tc.body, tc.status, rec.Code)
		}
	}
}

func TestRefreshRotationAndReuse(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.signUp("alice")

	rec, env := srv.json(http.MethodPost, "/api/v1/users/refresh-token", refreshRequest{RefreshToken: sess.refresh}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, env.Message)
	}
	rotated := decodeData[tokensResponse](t, env)
	if rotated.RefreshToken == "" || rotated.RefreshToken == sess.refresh {
		t.Fatal("expected a new refresh token")
	}

	rec, env = srv.json(http.MethodPost, "/api/v1/users/refresh-token", refreshRequest{RefreshToken: sess.refresh}, nil)
	if rec.Code != http.StatusUnauthorized || env.Message != auth.ErrRefreshTokenReused.Error() {
		t.Fatalf("expected reuse rejection, got %d %q", rec.Code, env.Message)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: rotated.RefreshToken})
	if rec, env := srv.do(req, nil); rec.Code != http.StatusOK {
		t.Fatalf("refresh via cookie: %d %s", rec.Code, env.Message)
	}

	if rec, _ := srv.json(http.MethodPost, "/api/v1/users/refresh-token", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized without a token, got %d", rec.Code)
	}
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.signUp("alice")

	rec, _ := srv.json(http.MethodPost, "/api/v1/users/logout", nil, sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("expected cookie %s to be cleared, got %+v", c.Name, c)
		}
	}

	if rec, _ := srv.json(http.MethodPost, "/api/v1/users/refresh-token", refreshRequest{RefreshToken: sess.refresh}, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked refresh token to fail, got %d", rec.Code)
	}
	if rec, _ := srv.json(http.MethodGet, "/api/v1/users/me", nil, sess); rec.Code != http.StatusOK {
		t.Fatalf("access tokens stay valid until expiry, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireViewer(t *testing.T) {
	srv := newTestServer(t, nil)

	if rec, _ := srv.json(http.MethodGet, "/api/v1/users/me", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}
	bad := &session{access: "not-a-token"}
	if rec, _ := srv.json(http.MethodGet, "/api/v1/videos", nil, bad); rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid tokens are rejected on public routes too, got %d", rec.Code)
	}
	if rec, _ := srv.json(http.MethodGet, "/api/v1/videos", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("anonymous feed: %d", rec.Code)
	}
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	srv := newTestServer(t, &allowN{n: 2})
	srv.signUp("alice")

	rec, env := srv.json(http.MethodPost, "/api/v1/users/login", loginRequest{Username: "alice", Password: "password123"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second login should pass: %d %s", rec.Code, env.Message)
	}
	rec, env = srv.json(http.MethodPost, "/api/v1/users/login", loginRequest{Username: "alice", Password: "password123"}, nil)
	if rec.Code != http.StatusTooManyRequests || env.Success {
		t.Fatalf("expected rate limit, got %d", rec.Code)
	}
}
