package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// SessionRevoker invalidates the refresh credential of a user.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID string) error
}

// RegisterInput carries a registration request. AvatarPath names a local
// temporary file and is required; CoverPath is optional.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	AvatarPath string
	CoverPath  string
}

// UserService manages accounts.
type UserService struct {
	users    repositories.UserRepository
	blobs    BlobStore
	hasher   PasswordHasher
	sessions SessionRevoker
	clock    clock
}

// NewUserService constructs a UserService.
func NewUserService(users repositories.UserRepository, blobs BlobStore, hasher PasswordHasher, sessions SessionRevoker) *UserService {
	return &UserService{
		users:    users,
		blobs:    blobs,
		hasher:   hasher,
		sessions: sessions,
		clock:    defaultClock(),
	}
}

// Register creates a new account. Duplicate usernames or emails fail Conflict
// without creating a record.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (viewer models.Viewer, err error) {
	ctx, span := logging.StartSpan(ctx, "users.register")
	defer func() { span.Finish(err) }()

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validate.Required(map[string]string{
		"username": in.Username,
		"email":    in.Email,
		"fullName": in.FullName,
		"password": in.Password,
	}); err != nil {
		return models.Viewer{}, err
	}
	if err := validate.Username(in.Username); err != nil {
		return models.Viewer{}, err
	}
	if err := validate.Email(in.Email); err != nil {
		return models.Viewer{}, err
	}
	if in.AvatarPath == "" {
		return models.Viewer{}, apperr.New(apperr.BadRequest, "avatar file is required")
	}

	for _, login := range []string{in.Username, in.Email} {
		_, err := s.users.FindByLogin(ctx, login)
		if err == nil {
			return models.Viewer{}, apperr.New(apperr.Conflict, "user with email or username already exists")
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return models.Viewer{}, fmt.Errorf("check existing user: %w", err)
		}
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.Viewer{}, err
	}

	id := s.clock.newID()
	avatar, err := s.blobs.Upload(ctx, in.AvatarPath, id)
	if err != nil {
		return models.Viewer{}, apperr.Wrap(apperr.Internal, "failed to upload avatar", err)
	}
	var cover models.Asset
	if in.CoverPath != "" {
		cover, err = s.blobs.Upload(ctx, in.CoverPath, id)
		if err != nil {
			deleteAsset(ctx, s.blobs, avatar, models.ResourceImage)
			return models.Viewer{}, apperr.Wrap(apperr.Internal, "failed to upload cover image", err)
		}
	}

	now := s.clock.now()
	user := models.User{
		ID:         id,
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Password:   hashed,
		Avatar:     avatar,
		CoverImage: cover,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		deleteAsset(ctx, s.blobs, avatar, models.ResourceImage)
		if !cover.IsZero() {
			deleteAsset(ctx, s.blobs, cover, models.ResourceImage)
		}
		if errors.Is(err, repositories.ErrConflict) {
			return models.Viewer{}, apperr.New(apperr.Conflict, "user with email or username already exists")
		}
		return models.Viewer{}, apperr.Wrap(apperr.Internal, "failed to register user", err)
	}

	logging.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return models.ViewerFromUser(user), nil
}

// ChangePassword replaces the viewer's password after checking the old one and
// revokes the viewer's refresh credential.
func (s *UserService) ChangePassword(ctx context.Context, viewer models.Viewer, oldPassword, newPassword string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if err := validate.Required(map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, viewer.ID)
	if err != nil {
		return notFound(err, "user does not exist", "load user")
	}

	ok, err := s.hasher.Verify(user.Password, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.BadRequest, "invalid old password")
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed, s.clock.now()); err != nil {
		return notFound(err, "user does not exist", "update password")
	}

	return s.sessions.Revoke(ctx, user.ID)
}

// UpdateAccount changes the viewer's full name and email.
func (s *UserService) UpdateAccount(ctx context.Context, viewer models.Viewer, fullName, email string) (models.Viewer, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Viewer{}, err
	}
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Required(map[string]string{"fullName": fullName, "email": email}); err != nil {
		return models.Viewer{}, err
	}
	if err := validate.Email(email); err != nil {
		return models.Viewer{}, err
	}

	existing, err := s.users.FindByLogin(ctx, email)
	switch {
	case err == nil && existing.ID != viewer.ID:
		return models.Viewer{}, apperr.New(apperr.Conflict, "email is already in use")
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return models.Viewer{}, fmt.Errorf("check existing user: %w", err)
	}

	user, err := s.users.UpdateAccount(ctx, viewer.ID, fullName, email, s.clock.now())
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Viewer{}, apperr.New(apperr.Conflict, "email is already in use")
		}
		return models.Viewer{}, notFound(err, "user does not exist", "update account")
	}
	return models.ViewerFromUser(user), nil
}

// UpdateAvatar uploads a new avatar and deletes the previous one.
func (s *UserService) UpdateAvatar(ctx context.Context, viewer models.Viewer, localPath string) (models.Viewer, error) {
	return s.replaceImage(ctx, viewer, localPath, "avatar", func(u models.User) models.Asset { return u.Avatar },
		s.users.UpdateAvatar)
}

// UpdateCoverImage uploads a new cover image and deletes the previous one.
func (s *UserService) UpdateCoverImage(ctx context.Context, viewer models.Viewer, localPath string) (models.Viewer, error) {
	return s.replaceImage(ctx, viewer, localPath, "cover image", func(u models.User) models.Asset { return u.CoverImage },
		s.users.UpdateCoverImage)
}

type imageWriter func(ctx context.Context, id string, asset models.Asset, at time.Time) error

func (s *UserService) replaceImage(ctx context.Context, viewer models.Viewer, localPath, label string,
	current func(models.User) models.Asset, write imageWriter) (models.Viewer, error) {
	if err := requireViewer(viewer); err != nil {
		return models.Viewer{}, err
	}
	if localPath == "" {
		return models.Viewer{}, apperr.New(apperr.BadRequest, label+" file is missing")
	}

	user, err := s.users.FindByID(ctx, viewer.ID)
	if err != nil {
		return models.Viewer{}, notFound(err, "user does not exist", "load user")
	}

	asset, err := s.blobs.Upload(ctx, localPath, user.ID)
	if err != nil {
		return models.Viewer{}, apperr.Wrap(apperr.Internal, "failed to upload "+label, err)
	}

	previous := current(user)
	if err := write(ctx, user.ID, asset, s.clock.now()); err != nil {
		deleteAsset(ctx, s.blobs, asset, models.ResourceImage)
		return models.Viewer{}, notFound(err, "user does not exist", "update "+label)
	}
	if !previous.IsZero() {
		deleteAsset(ctx, s.blobs, previous, models.ResourceImage)
	}

	updated, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return models.Viewer{}, notFound(err, "user does not exist", "reload user")
	}
	return models.ViewerFromUser(updated), nil
}
