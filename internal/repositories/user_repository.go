package repositories

import (
	"context"
	"time"

	"github.com/vidshare/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	// FindByLogin matches the identifier against username or email, case-insensitively.
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string, updatedAt time.Time) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id string, avatar models.Asset, updatedAt time.Time) error
	UpdateCoverImage(ctx context.Context, id string, cover models.Asset, updatedAt time.Time) error
	// PushWatchHistory records videoID as the most recent entry of the user's history.
	PushWatchHistory(ctx context.Context, userID, videoID string, watchedAt time.Time) error
	// WatchHistory returns a most-recent-first window of the history and its full length.
	WatchHistory(ctx context.Context, userID string, offset, limit int) ([]string, int, error)
}

// CredentialStore persists the single valid refresh credential held on each user record.
type CredentialStore interface {
	SetRefreshCredential(ctx context.Context, userID, token string) error
	// SwapRefreshCredential replaces expected with next atomically, reporting false
	// when the stored value no longer equals expected.
	SwapRefreshCredential(ctx context.Context, userID, expected, next string) (bool, error)
	ClearRefreshCredential(ctx context.Context, userID string) error
}
