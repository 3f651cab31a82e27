package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/services"
	"github.com/vidshare/backend/internal/views"
)

// consumingBlobs mimics the blob store contract: uploads consume the local file.
type consumingBlobs struct {
	mu      sync.Mutex
	deletes []models.AssetRef
}

func (b *consumingBlobs) Upload(_ context.Context, localPath, ownerID string) (models.Asset, error) {
	defer os.Remove(localPath)
	if _, err := os.Stat(localPath); err != nil {
		return models.Asset{}, err
	}
	id := ownerID + "/" + uuid.NewString()
	return models.Asset{URL: "https://cdn.example.com/" + id, AssetID: id}, nil
}

func (b *consumingBlobs) Delete(_ context.Context, ref models.AssetRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, ref)
	return nil
}

type allowN struct {
	mu   sync.Mutex
	left map[string]int
	n    int
}

func (l *allowN) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.left == nil {
		l.left = map[string]int{}
	}
	if _, ok := l.left[key]; !ok {
		l.left[key] = l.n
	}
	if l.left[key] == 0 {
		return false
	}
	l.left[key]--
	return true
}

type testServer struct {
	t         *testing.T
	store     *repositories.MemoryStore
	blobs     *consumingBlobs
	handler   http.Handler
	uploadDir string
}

func newTestServer(t *testing.T, limiter RateLimiter) *testServer {
	t.Helper()
	store := repositories.NewMemoryStore()
	blobs := &consumingBlobs{}
	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	manager := auth.NewManager(codec, store.Users(), store.Credentials(), hasher)
	builder := views.NewBuilder(views.Dependencies{
		Users:     store.Users(),
		Videos:    store.Videos(),
		Comments:  store.Comments(),
		Playlists: store.Playlists(),
		Relations: store.Relationships(),
		Search:    store.Videos(),
	})

	uploadDir := t.TempDir()
	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Sessions:      manager,
		Resolver:      auth.NewViewerResolver(codec, store.Users()),
		Views:         builder,
		Users:         services.NewUserService(store.Users(), blobs, hasher, manager),
		Videos:        services.NewVideoService(store.Videos(), store.Users(), blobs),
		Comments:      services.NewCommentService(store.Comments(), store.Videos(), store.Likes()),
		Likes:         services.NewLikeService(store.Likes(), store.Videos(), store.Comments()),
		Subscriptions: services.NewSubscriptionService(store.Subscriptions(), store.Users(), nil),
		Playlists:     services.NewPlaylistService(store.Playlists(), store.Videos()),
		Limiter:       limiter,
		UploadDir:     uploadDir,
	})
	return &testServer{t: t, store: store, blobs: blobs, handler: mux, uploadDir: uploadDir}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

type session struct {
	viewer  models.Viewer
	cookies []*http.Cookie
	access  string
	refresh string
}

func (s *testServer) do(req *http.Request, sess *session) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.access)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("decode envelope for %s %s: %v (body %q)", req.Method, req.URL.Path, err, rec.Body.String())
	}
	if env.StatusCode != rec.Code {
		s.t.Fatalf("envelope status %d differs from response status %d", env.StatusCode, rec.Code)
	}
	if env.Success != (rec.Code < http.StatusBadRequest) {
		s.t.Fatalf("success flag %v inconsistent with status %d", env.Success, rec.Code)
	}
	return rec, env
}

func (s *testServer) json(method, path string, body any, sess *session) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, sess)
}

func (s *testServer) multipart(method, path string, fields map[string]string, files map[string]string, sess *session) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			s.t.Fatalf("write field: %v", err)
		}
	}
	for field, name := range files {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			s.t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write([]byte("contents of " + name)); err != nil {
			s.t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		s.t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(req, sess)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return out
}

// signUp registers username and logs in.
func (s *testServer) signUp(username string) *session {
	s.t.Helper()
	rec, env := s.multipart(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "Full " + username,
		"password": "password123",
	}, map[string]string{"avatar": username + ".png"}, nil)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", username, rec.Code, env.Message)
	}

	rec, env = s.json(http.MethodPost, "/api/v1/users/login", loginRequest{Username: username, Password: "password123"}, nil)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", username, rec.Code, env.Message)
	}
	login := decodeData[loginResponse](s.t, env)
	return &session{
		viewer:  login.User,
		cookies: rec.Result().Cookies(),
		access:  login.AccessToken,
		refresh: login.RefreshToken,
	}
}
