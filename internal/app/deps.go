package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/cache"
	"github.com/vidshare/backend/internal/config"
	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/handlers"
	"github.com/vidshare/backend/internal/middleware"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/search"
	"github.com/vidshare/backend/internal/services"
	"github.com/vidshare/backend/internal/storage"
	"github.com/vidshare/backend/internal/views"
)

// cleanupFunc releases resources acquired while building dependencies.
type cleanupFunc func(ctx context.Context) error

// backend is the set of storage adapters the services and views run on.
type backend struct {
	users         repositories.UserRepository
	credentials   auth.CredentialStore
	videos        repositories.VideoRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
	playlists     repositories.PlaylistRepository
	relations     views.RelationshipIndex
	search        views.SearchIndex
}

func postgresBackend(pool db.Pool) backend {
	return backend{
		users:         repositories.NewPostgresUserRepository(pool),
		credentials:   repositories.NewPostgresCredentialStore(pool),
		videos:        repositories.NewPostgresVideoRepository(pool),
		comments:      repositories.NewPostgresCommentRepository(pool),
		likes:         repositories.NewPostgresLikeRepository(pool),
		subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		playlists:     repositories.NewPostgresPlaylistRepository(pool),
		relations:     repositories.NewPostgresRelationshipIndex(pool),
		search:        search.NewPostgresIndex(pool),
	}
}

func memoryBackend(store *repositories.MemoryStore) backend {
	return backend{
		users:         store.Users(),
		credentials:   store.Credentials(),
		videos:        store.Videos(),
		comments:      store.Comments(),
		likes:         store.Likes(),
		subscriptions: store.Subscriptions(),
		playlists:     store.Playlists(),
		relations:     store.Relationships(),
		search:        store.Videos(),
	}
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// A nil pool selects the in-memory backend.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, cleanupFunc, error) {
	logger := slog.Default()

	var store backend
	if pool != nil {
		store = postgresBackend(pool)
	} else {
		store = memoryBackend(repositories.NewMemoryStore())
	}

	authCfg := cfg.Auth
	if pool == nil && (authCfg.AccessTokenSecret == "" || authCfg.RefreshTokenSecret == "") {
		logger.Warn("token secrets not configured, generating ephemeral secrets for the memory backend")
		if authCfg.AccessTokenSecret == "" {
			authCfg.AccessTokenSecret = uuid.NewString()
		}
		if authCfg.RefreshTokenSecret == "" {
			authCfg.RefreshTokenSecret = uuid.NewString()
		}
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		AccessSecret:  authCfg.AccessTokenSecret,
		AccessTTL:     authCfg.AccessTokenTTL,
		RefreshSecret: authCfg.RefreshTokenSecret,
		RefreshTTL:    authCfg.RefreshTokenTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("build token codec: %w", err)
	}

	blobs, err := storage.NewS3BlobStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("build blob store: %w", err)
	}

	checks := map[string]handlers.HealthCheck{}
	if pool != nil {
		checks["database"] = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	}

	var (
		counts      views.CountCache
		invalidator services.CountInvalidator
		cleanup     cleanupFunc = func(context.Context) error { return nil }
	)
	if cfg.Redis.Addr != "" {
		redisCounts := cache.NewRedisCounts(cache.NewRedisPool(cfg.Redis.Addr), cfg.Redis.CountTTL)
		counts = redisCounts
		invalidator = redisCounts
		checks["redis"] = redisCounts.Ping
		cleanup = func(context.Context) error { return redisCounts.Close() }
	}

	hasher := auth.NewBcryptHasher()
	sessions := auth.NewManager(codec, store.users, store.credentials, hasher)

	deps := handlers.Dependencies{
		Sessions: sessions,
		Resolver: auth.NewViewerResolver(codec, store.users),
		Views: views.NewBuilder(views.Dependencies{
			Users:     store.users,
			Videos:    store.videos,
			Comments:  store.comments,
			Playlists: store.playlists,
			Relations: store.relations,
			Search:    store.search,
			Counts:    counts,
		}),
		Users:         services.NewUserService(store.users, blobs, hasher, sessions),
		Videos:        services.NewVideoService(store.videos, store.users, blobs),
		Comments:      services.NewCommentService(store.comments, store.videos, store.likes),
		Likes:         services.NewLikeService(store.likes, store.videos, store.comments),
		Subscriptions: services.NewSubscriptionService(store.subscriptions, store.users, invalidator),
		Playlists:     services.NewPlaylistService(store.playlists, store.videos),
		Limiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			0,
		),
		Cookies:      handlers.CookieOptions{Domain: cfg.Auth.CookieDomain},
		UploadDir:    cfg.UploadDir,
		HealthChecks: checks,
	}

	return deps, cleanup, nil
}
