package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/views"
)

func (s *testServer) publish(sess *session, title string) models.Video {
	s.t.Helper()
	rec, env := s.multipart(http.MethodPost, "/api/v1/videos", map[string]string{
		"title":       title,
		"description": "about " + title,
		"duration":    "42.5",
	}, map[string]string{"videoFile": title + ".mp4", "thumbnail": title + ".jpg"}, sess)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("publish %s: %d %s", title, rec.Code, env.Message)
	}
	return decodeData[models.Video](s.t, env)
}

func TestPublishAndBrowseVideos(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.signUp("alice")
	video := srv.publish(alice, "gophers")

	if video.Duration != 42.5 || !video.IsPublished || video.OwnerID != alice.viewer.ID {
		t.Fatalf("unexpected video %+v", video)
	}

	rec, env := srv.json(http.MethodGet, "/api/v1/videos?query=GOPH&limit=5", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: %d %s", rec.Code, env.Message)
	}
	feed := decodeData[views.Page[views.FeedVideo]](t, env)
	if feed.TotalItems != 1 || feed.Limit != 5 || feed.Items[0].Owner.Username != "alice" {
		t.Fatalf("unexpected feed %+v", feed)
	}

	if rec, _ := srv.json(http.MethodGet, "/api/v1/videos?page=0", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for page 0, got %d", rec.Code)
	}

	rec, env = srv.json(http.MethodGet, "/api/v1/videos/"+video.ID, nil, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, env.Message)
	}
	if got := decodeData[models.Video](t, env); got.Views != 1 {
		t.Fatalf("expected one view, got %d", got.Views)
	}

	rec, env = srv.json(http.MethodGet, "/api/v1/users/history", nil, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: %d %s", rec.Code, env.Message)
	}
	if history := decodeData[views.Page[views.FeedVideo]](t, env); history.TotalItems != 1 || history.Items[0].ID != video.ID {
		t.Fatalf("unexpected history %+v", history)
	}

	if rec, _ := srv.json(http.MethodGet, "/api/v1/videos/not-an-id", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for malformed id, got %d", rec.Code)
	}
}

func TestPublishRequiresFiles(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.signUp("alice")

	rec, _ := srv.multipart(http.MethodPost, "/api/v1/videos", map[string]string{
		"title":       "no files",
		"description": "missing uploads",
	}, map[string]string{"thumbnail": "t.jpg"}, alice)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}

	entries, err := os.ReadDir(srv.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected uploads must not leave temporary files, found %d", len(entries))
	}
}

func TestVideoMutationsAreOwnerOnly(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.signUp("alice")
	bob := srv.signUp("bob")
	video := srv.publish(alice, "gophers")

	if rec, _ := srv.json(http.MethodDelete, "/api/v1/videos/"+video.ID, nil, bob); rec.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", rec.Code)
	}
	if rec, _ := srv.json(http.MethodPatch, "/api/v1/videos/"+video.ID+"/publish", nil, bob); rec.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", rec.Code)
	}

	rec, env := srv.json(http.MethodPatch, "/api/v1/videos/"+video.ID+"/publish", nil, alice)
	if rec.Code != http.StatusOK || decodeData[models.Video](t, env).IsPublished {
		t.Fatalf("expected video to be unpublished, got %d", rec.Code)
	}
	if rec, _ := srv.json(http.MethodGet, "/api/v1/videos/"+video.ID, nil, bob); rec.Code != http.StatusNotFound {
		t.Fatalf("unpublished videos are hidden from others, got %d", rec.Code)
	}

	rec, env = srv.multipart(http.MethodPatch, "/api/v1/videos/"+video.ID, map[string]string{
		"title":       "renamed",
		"description": "new description",
	}, nil, alice)
	if rec.Code != http.StatusOK || decodeData[models.Video](t, env).Title != "renamed" {
		t.Fatalf("update: %d %s", rec.Code, env.Message)
	}

	if rec, _ := srv.json(http.MethodDelete, "/api/v1/videos/"+video.ID, nil, alice); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if len(srv.blobs.deletes) != 2 {
		t.Fatalf("expected two blob deletes, got %+v", srv.blobs.deletes)
	}
}
