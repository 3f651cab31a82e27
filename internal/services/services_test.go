package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/views"
)

type fakeBlobs struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []models.AssetRef
	uploadErr error
	deleteErr error
}

func (b *fakeBlobs) Upload(_ context.Context, localPath, ownerID string) (models.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return models.Asset{}, b.uploadErr
	}
	b.uploads = append(b.uploads, localPath)
	id := ownerID + "/" + uuid.NewString()
	return models.Asset{URL: "https://cdn.example.com/" + id, AssetID: id}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, ref models.AssetRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, ref)
	return b.deleteErr
}

type fakeRevoker struct{ revoked []string }

func (r *fakeRevoker) Revoke(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type fakeInvalidator struct{ keys []string }

func (i *fakeInvalidator) Invalidate(_ context.Context, keys ...string) error {
	i.keys = append(i.keys, keys...)
	return errors.New("cache offline")
}

type fixture struct {
	store   *repositories.MemoryStore
	blobs   *fakeBlobs
	revoker *fakeRevoker
	users   *UserService
	videos  *VideoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	blobs := &fakeBlobs{}
	revoker := &fakeRevoker{}
	return &fixture{
		store:   store,
		blobs:   blobs,
		revoker: revoker,
		users:   NewUserService(store.Users(), blobs, auth.BcryptHasher{Cost: bcrypt.MinCost}, revoker),
		videos:  NewVideoService(store.Videos(), store.Users(), blobs),
	}
}

func (f *fixture) register(t *testing.T, username string) models.Viewer {
	t.Helper()
	viewer, err := f.users.Register(context.Background(), RegisterInput{
		Username:   username,
		Email:      username + "@example.com",
		FullName:   "Full " + username,
		Password:   "password123",
		AvatarPath: "/tmp/" + username + ".png",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return viewer
}

func (f *fixture) publish(t *testing.T, owner models.Viewer, title string) models.Video {
	t.Helper()
	video, err := f.videos.Publish(context.Background(), owner, PublishInput{
		Title:         title,
		Description:   "about " + title,
		Duration:      12.5,
		VideoPath:     "/tmp/" + title + ".mp4",
		ThumbnailPath: "/tmp/" + title + ".jpg",
	})
	if err != nil {
		t.Fatalf("publish %s: %v", title, err)
	}
	return video
}

func TestRegisterRejectsDuplicatesWithoutCreatingRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice")
	if alice.Username != "alice" || alice.Avatar.IsZero() {
		t.Fatalf("unexpected viewer %+v", alice)
	}
	uploads := len(f.blobs.uploads)

	_, err := f.users.Register(ctx, RegisterInput{
		Username:   "someone",
		Email:      "ALICE@example.com",
		FullName:   "Someone",
		Password:   "password123",
		AvatarPath: "/tmp/a.png",
	})
	if apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.blobs.uploads) != uploads {
		t.Fatal("duplicate registration must not upload files")
	}
	if _, err := f.store.Users().FindByUsername(ctx, "someone"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected no record for rejected registration, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := []RegisterInput{
		{Email: "x@example.com", FullName: "X", Password: "p", AvatarPath: "/tmp/x"},
		{Username: "xavier", Email: "not-an-email", FullName: "X", Password: "p", AvatarPath: "/tmp/x"},
		{Username: "xavier", Email: "x@example.com", FullName: "X", Password: "p"},
		{Username: "x@example.org", Email: "x@example.com", FullName: "X", Password: "p", AvatarPath: "/tmp/x"},
		{Username: "xa", Email: "x@example.com", FullName: "X", Password: "p", AvatarPath: "/tmp/x"},
		{Username: "xavier smith", Email: "x@example.com", FullName: "X", Password: "p", AvatarPath: "/tmp/x"},
	}
	for _, in := range cases {
		if _, err := f.users.Register(context.Background(), in); apperr.KindOf(err) != apperr.BadRequest {
			t.Fatalf("expected bad request for %+v, got %v", in, err)
		}
	}
}

func TestLoginIdentifiersResolveToOneAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.register(t, "bob")
	mallory := f.register(t, "mallory")

	_, err := f.users.Register(ctx, RegisterInput{
		Username:   "bob@corp.com",
		Email:      "mallory2@example.com",
		FullName:   "Mallory",
		Password:   "password123",
		AvatarPath: "/tmp/m.png",
	})
	if apperr.KindOf(err) != apperr.BadRequest {
		t.Fatalf("expected an email-shaped username to be rejected, got %v", err)
	}

	if _, err := f.users.UpdateAccount(ctx, mallory, "Mallory", "BOB@example.com"); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected conflict when taking another user's email, got %v", err)
	}
	if _, err := f.users.UpdateAccount(ctx, bob, "Bob", "bob@corp.com"); err != nil {
		t.Fatalf("update own email: %v", err)
	}
	if _, err := f.users.UpdateAccount(ctx, bob, "Bobby", "bob@corp.com"); err != nil {
		t.Fatalf("keeping the same email must not conflict: %v", err)
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		AccessSecret: "access", AccessTTL: time.Minute,
		RefreshSecret: "refresh", RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	manager := auth.NewManager(codec, f.store.Users(), f.store.Credentials(), auth.BcryptHasher{Cost: bcrypt.MinCost})
	for i := 0; i < 20; i++ {
		user, _, err := manager.Login(ctx, "bob@corp.com", "password123")
		if err != nil {
			t.Fatalf("login by email: %v", err)
		}
		if user.ID != bob.ID {
			t.Fatalf("login by email resolved %s, want %s", user.ID, bob.ID)
		}
	}
}

func TestChangePasswordRevokesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	if err := f.users.ChangePassword(ctx, alice, "wrong", "next-password"); apperr.KindOf(err) != apperr.BadRequest {
		t.Fatalf("expected bad request for wrong old password, got %v", err)
	}
	if err := f.users.ChangePassword(ctx, alice, "password123", "next-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if len(f.revoker.revoked) != 1 || f.revoker.revoked[0] != alice.ID {
		t.Fatalf("expected session revocation, got %v", f.revoker.revoked)
	}

	user, err := f.store.Users().FindByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if ok, _ := (auth.BcryptHasher{}).Verify(user.Password, "next-password"); !ok {
		t.Fatal("expected the new password to be stored")
	}
}

func TestUpdateAvatarDeletesPreviousAsset(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	updated, err := f.users.UpdateAvatar(context.Background(), alice, "/tmp/new.png")
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if updated.Avatar == alice.Avatar {
		t.Fatal("expected a new avatar")
	}
	if len(f.blobs.deletes) != 1 || f.blobs.deletes[0].AssetID != alice.Avatar.AssetID || f.blobs.deletes[0].Kind != models.ResourceImage {
		t.Fatalf("expected the previous avatar to be deleted, got %+v", f.blobs.deletes)
	}
}

func TestDeleteVideoAlwaysDeletesBothBlobs(t *testing.T) {
	for _, deleteErr := range []error{nil, errors.New("storage unavailable")} {
		f := newFixture(t)
		ctx := context.Background()
		owner := f.register(t, "owner")
		video := f.publish(t, owner, "clip")
		f.blobs.deleteErr = deleteErr

		if err := f.videos.Delete(ctx, owner, video.ID); err != nil {
			t.Fatalf("delete with blob error %v: %v", deleteErr, err)
		}
		if len(f.blobs.deletes) != 2 {
			t.Fatalf("expected two blob deletes, got %+v", f.blobs.deletes)
		}
		if f.blobs.deletes[0].Kind != models.ResourceVideo || f.blobs.deletes[1].Kind != models.ResourceImage {
			t.Fatalf("unexpected resource kinds %+v", f.blobs.deletes)
		}
		if _, err := f.store.Videos().FindByID(ctx, video.ID); !errors.Is(err, repositories.ErrNotFound) {
			t.Fatalf("expected video to be gone, got %v", err)
		}
	}
}

func TestVideoOwnershipGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	video := f.publish(t, owner, "clip")

	if err := f.videos.Delete(ctx, other, video.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.videos.TogglePublish(ctx, models.Anonymous, video.ID); apperr.KindOf(err) != apperr.Unauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(f.blobs.deletes) != 0 {
		t.Fatal("rejected deletes must not touch storage")
	}
}

func TestWatchHidesUnpublishedAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	fan := f.register(t, "fan")
	video := f.publish(t, owner, "clip")

	watched, err := f.videos.Watch(ctx, fan, video.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if watched.Views != 1 {
		t.Fatalf("expected view to be counted, got %d", watched.Views)
	}
	history, total, err := f.store.Users().WatchHistory(ctx, fan.ID, 0, 10)
	if err != nil || total != 1 || history[0] != video.ID {
		t.Fatalf("unexpected history %v total=%d err=%v", history, total, err)
	}

	if _, err := f.videos.Watch(ctx, models.Anonymous, video.ID); err != nil {
		t.Fatalf("anonymous watch: %v", err)
	}

	if _, err := f.videos.TogglePublish(ctx, owner, video.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := f.videos.Watch(ctx, fan, video.ID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected unpublished video to be hidden, got %v", err)
	}
	if _, err := f.videos.Watch(ctx, owner, video.ID); err != nil {
		t.Fatalf("owner should see unpublished video: %v", err)
	}
}

func TestUpdateVideoReplacesThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	video := f.publish(t, owner, "clip")

	updated, err := f.videos.Update(ctx, owner, video.ID, UpdateVideoInput{Title: "new", Description: "desc", ThumbnailPath: "/tmp/t.jpg"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "new" || updated.Thumbnail == video.Thumbnail {
		t.Fatalf("unexpected update %+v", updated)
	}
	if len(f.blobs.deletes) != 1 || f.blobs.deletes[0].AssetID != video.Thumbnail.AssetID {
		t.Fatalf("expected old thumbnail delete, got %+v", f.blobs.deletes)
	}
}

func TestCommentOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	author := f.register(t, "author")
	fan := f.register(t, "fan")
	video := f.publish(t, owner, "clip")

	comments := NewCommentService(f.store.Comments(), f.store.Videos(), f.store.Likes())
	likes := NewLikeService(f.store.Likes(), f.store.Videos(), f.store.Comments())

	if _, err := comments.Create(ctx, author, uuid.NewString(), "hi"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for missing video, got %v", err)
	}
	comment, err := comments.Create(ctx, author, video.ID, "  first  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comment.Content != "first" {
		t.Fatalf("expected trimmed content, got %q", comment.Content)
	}

	if _, err := comments.Update(ctx, fan, comment.ID, "hijack"); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if err := comments.Delete(ctx, fan, comment.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden delete, got %v", err)
	}

	updated, err := comments.Update(ctx, author, comment.ID, "edited")
	if err != nil || updated.Content != "edited" {
		t.Fatalf("owner update: %+v %v", updated, err)
	}

	for _, viewer := range []models.Viewer{author, fan} {
		if _, err := likes.Toggle(ctx, viewer, models.LikeTargetComment, comment.ID); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	if err := comments.Delete(ctx, author, comment.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	counts, err := f.store.Relationships().CommentLikeCounts(ctx, []string{comment.ID})
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[comment.ID] != 1 {
		t.Fatalf("only the deleting user's like is removed, got %d", counts[comment.ID])
	}
}

func TestLikeToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	fan := f.register(t, "fan")
	video := f.publish(t, owner, "clip")
	likes := NewLikeService(f.store.Likes(), f.store.Videos(), f.store.Comments())

	first, err := likes.Toggle(ctx, fan, models.LikeTargetVideo, video.ID)
	if err != nil || first.Removed || first.Like == nil || first.Like.VideoID != video.ID {
		t.Fatalf("expected like to be created, got %+v %v", first, err)
	}
	second, err := likes.Toggle(ctx, fan, models.LikeTargetVideo, video.ID)
	if err != nil || !second.Removed || second.Like != nil {
		t.Fatalf("expected like to be removed, got %+v %v", second, err)
	}

	if _, err := likes.Toggle(ctx, fan, models.LikeTargetComment, uuid.NewString()); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for missing comment, got %v", err)
	}
	if res, err := likes.Toggle(ctx, fan, models.LikeTargetTweet, uuid.NewString()); err != nil || res.Like == nil {
		t.Fatalf("tweets are not checked for existence: %+v %v", res, err)
	}
	if _, err := likes.Toggle(ctx, fan, models.LikeTarget("post"), uuid.NewString()); apperr.KindOf(err) != apperr.BadRequest {
		t.Fatalf("expected bad request for unknown target, got %v", err)
	}
	if _, err := likes.Toggle(ctx, models.Anonymous, models.LikeTargetVideo, video.ID); apperr.KindOf(err) != apperr.Unauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUnpublishedVideoRejectsOtherViewers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	fan := f.register(t, "fan")
	video := f.publish(t, owner, "clip")
	comments := NewCommentService(f.store.Comments(), f.store.Videos(), f.store.Likes())
	likes := NewLikeService(f.store.Likes(), f.store.Videos(), f.store.Comments())
	playlists := NewPlaylistService(f.store.Playlists(), f.store.Videos())

	comment, err := comments.Create(ctx, owner, video.ID, "pinned")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.videos.TogglePublish(ctx, owner, video.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	playlist, err := playlists.Create(ctx, fan, "mix", "later")
	if err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if _, err := comments.Create(ctx, fan, video.ID, "hi"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for comment, got %v", err)
	}
	if _, err := likes.Toggle(ctx, fan, models.LikeTargetVideo, video.ID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for video like, got %v", err)
	}
	if _, err := likes.Toggle(ctx, fan, models.LikeTargetComment, comment.ID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for comment like, got %v", err)
	}
	if _, err := playlists.AddVideo(ctx, fan, playlist.ID, video.ID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for playlist add, got %v", err)
	}
	if liked, _ := f.store.Relationships().LikedBy(ctx, fan.ID, models.LikeTargetVideo, []string{video.ID}); liked[video.ID] {
		t.Fatal("rejected like must not be stored")
	}

	if _, err := comments.Create(ctx, owner, video.ID, "draft notes"); err != nil {
		t.Fatalf("owner comment: %v", err)
	}
	if _, err := likes.Toggle(ctx, owner, models.LikeTargetVideo, video.ID); err != nil {
		t.Fatalf("owner like: %v", err)
	}
	if _, err := likes.Toggle(ctx, owner, models.LikeTargetComment, comment.ID); err != nil {
		t.Fatalf("owner comment like: %v", err)
	}
}

func TestSubscriptionToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	channel := f.register(t, "channel")
	fan := f.register(t, "fan")
	counts := &fakeInvalidator{}
	subs := NewSubscriptionService(f.store.Subscriptions(), f.store.Users(), counts)

	if _, err := subs.Toggle(ctx, fan, fan.ID); apperr.KindOf(err) != apperr.BadRequest {
		t.Fatalf("expected bad request for self subscription, got %v", err)
	}
	if _, err := subs.Toggle(ctx, fan, uuid.NewString()); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for missing channel, got %v", err)
	}

	res, err := subs.Toggle(ctx, fan, channel.ID)
	if err != nil || !res.Subscribed {
		t.Fatalf("subscribe: %+v %v", res, err)
	}
	if len(counts.keys) != 2 || counts.keys[0] != views.SubscriberCountKey(channel.ID) || counts.keys[1] != views.SubscribedToCountKey(fan.ID) {
		t.Fatalf("unexpected invalidated keys %v", counts.keys)
	}
	if n, _ := f.store.Relationships().SubscriberCount(ctx, channel.ID); n != 1 {
		t.Fatalf("expected one subscriber, got %d", n)
	}

	res, err = subs.Toggle(ctx, fan, channel.ID)
	if err != nil || res.Subscribed {
		t.Fatalf("unsubscribe: %+v %v", res, err)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	a := f.publish(t, owner, "a")
	b := f.publish(t, owner, "b")
	playlists := NewPlaylistService(f.store.Playlists(), f.store.Videos())

	playlist, err := playlists.Create(ctx, owner, "mix", "favourites")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range []string{a.ID, b.ID, a.ID} {
		if playlist, err = playlists.AddVideo(ctx, owner, playlist.ID, id); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if len(playlist.VideoIDs) != 3 {
		t.Fatalf("duplicates are kept, got %v", playlist.VideoIDs)
	}

	if _, err := playlists.AddVideo(ctx, other, playlist.ID, a.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := playlists.AddVideo(ctx, owner, playlist.ID, uuid.NewString()); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected not found for missing video, got %v", err)
	}

	playlist, err = playlists.RemoveVideo(ctx, owner, playlist.ID, a.ID)
	if err != nil || len(playlist.VideoIDs) != 1 || playlist.VideoIDs[0] != b.ID {
		t.Fatalf("remove: %v %v", playlist.VideoIDs, err)
	}

	renamed, err := playlists.Update(ctx, owner, playlist.ID, "renamed", "desc")
	if err != nil || renamed.Name != "renamed" {
		t.Fatalf("update: %+v %v", renamed, err)
	}
	if err := playlists.Delete(ctx, other, playlist.ID); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := playlists.Delete(ctx, owner, playlist.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.Playlists().FindByID(ctx, playlist.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected playlist to be gone, got %v", err)
	}
}

func TestAssertOwner(t *testing.T) {
	owner := models.Viewer{ID: uuid.NewString()}
	if err := AssertOwner(owner.ID, owner); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := AssertOwner(owner.ID, models.Viewer{ID: uuid.NewString()}); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := AssertOwner(owner.ID, models.Anonymous); apperr.KindOf(err) != apperr.Unauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
