package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vidshare/backend/internal/models"
)

type stubUploader struct {
	key         string
	contentType string
	body        string
	err         error
}

func (u *stubUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.key = aws.ToString(input.Key)
	u.contentType = aws.ToString(input.ContentType)
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	u.body = string(data)
	return &manager.UploadOutput{Key: input.Key}, nil
}

type stubDeleter struct {
	keys []string
	err  error
}

func (d *stubDeleter) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	d.keys = append(d.keys, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, d.err
}

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestUploadKeysByOwnerAndRemovesLocalFile(t *testing.T) {
	up := &stubUploader{}
	store := newS3BlobStore(up, &stubDeleter{}, "media", "https://cdn.example.com/")
	path := writeTemp(t, "thumb.PNG", "pixels")

	asset, err := store.Upload(context.Background(), path, "user-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(up.key, "user-1/") || !strings.HasSuffix(up.key, ".png") {
		t.Fatalf("unexpected key %q", up.key)
	}
	if up.body != "pixels" || up.contentType != "image/png" {
		t.Fatalf("unexpected upload body=%q contentType=%q", up.body, up.contentType)
	}
	if asset.AssetID != up.key || asset.URL != "https://cdn.example.com/"+up.key {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected local file to be removed, got %v", err)
	}
}

func TestUploadFailureStillRemovesLocalFile(t *testing.T) {
	store := newS3BlobStore(&stubUploader{err: errors.New("denied")}, &stubDeleter{}, "media", "")
	path := writeTemp(t, "avatar.png", "pixels")

	if _, err := store.Upload(context.Background(), path, "user-1"); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected local file to be removed, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	deleter := &stubDeleter{}
	store := newS3BlobStore(&stubUploader{}, deleter, "media", "")

	if err := store.Delete(context.Background(), models.AssetRef{AssetID: "/user-1/a.png", Kind: models.ResourceImage}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), models.AssetRef{}); err != nil {
		t.Fatalf("empty ref: %v", err)
	}
	if len(deleter.keys) != 1 || deleter.keys[0] != "user-1/a.png" {
		t.Fatalf("unexpected deletes %v", deleter.keys)
	}

	deleter.err = errors.New("unavailable")
	if err := store.Delete(context.Background(), models.AssetRef{AssetID: "user-1/b.mp4", Kind: models.ResourceVideo}); err == nil {
		t.Fatal("expected delete error to surface")
	}
}
