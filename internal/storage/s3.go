// Package storage uploads media to an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/config"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3BlobStore stores uploaded media in a bucket. Objects are keyed by owner id.
type S3BlobStore struct {
	uploader uploader
	deleter  objectDeleter
	bucket   string
	baseURL  string
}

// NewS3BlobStore configures a blob store targeting the provided object store.
func NewS3BlobStore(ctx context.Context, cfg config.ObjectStoreConfig) (*S3BlobStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3BlobStore(up, client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3BlobStore(up uploader, deleter objectDeleter, bucket, baseURL string) *S3BlobStore {
	return &S3BlobStore{
		uploader: up,
		deleter:  deleter,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload stores the local file under the owner's prefix and removes the local
// file afterwards, whether or not the upload succeeded.
func (s *S3BlobStore) Upload(ctx context.Context, localPath, ownerID string) (models.Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return models.Asset{}, errors.New("s3 storage: empty local path")
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("failed to remove local upload",
				slog.String("path", localPath), slog.Any("error", err))
		}
	}()

	file, err := os.Open(localPath)
	if err != nil {
		return models.Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := objectKey(ownerID, ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return models.Asset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return models.Asset{URL: s.publicURL(key), AssetID: key}, nil
}

// Delete removes the object named by ref. Deleting a missing object succeeds.
func (s *S3BlobStore) Delete(ctx context.Context, ref models.AssetRef) error {
	key := strings.TrimLeft(ref.AssetID, "/")
	if key == "" {
		return nil
	}
	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %s %s: %w", ref.Kind, key, err)
	}
	return nil
}

func (s *S3BlobStore) publicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func objectKey(ownerID, ext string) string {
	prefix := strings.Trim(ownerID, "/")
	if prefix == "" {
		prefix = "shared"
	}
	return prefix + "/" + uuid.NewString() + ext
}
