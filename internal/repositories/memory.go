package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidshare/backend/internal/models"
)

type historyEntry struct {
	videoID   string
	watchedAt time.Time
}

// MemoryStore keeps every collection in process memory behind one lock. It backs
// the memory storage backend and the package tests of the domain layers.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	videos    map[string]models.Video
	comments  map[string]models.Comment
	likes     []models.Like
	subs      []models.Subscription
	playlists map[string]models.Playlist
	history   map[string][]historyEntry
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.User),
		videos:    make(map[string]models.Video),
		comments:  make(map[string]models.Comment),
		playlists: make(map[string]models.Playlist),
		history:   make(map[string][]historyEntry),
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() *MemoryUsers { return &MemoryUsers{s} }

// Credentials returns the refresh credential view of the store.
func (s *MemoryStore) Credentials() *MemoryCredentials { return &MemoryCredentials{s} }

// Videos returns the video repository view of the store.
func (s *MemoryStore) Videos() *MemoryVideos { return &MemoryVideos{s} }

// Comments returns the comment repository view of the store.
func (s *MemoryStore) Comments() *MemoryComments { return &MemoryComments{s} }

// Likes returns the like repository view of the store.
func (s *MemoryStore) Likes() *MemoryLikes { return &MemoryLikes{s} }

// Subscriptions returns the subscription repository view of the store.
func (s *MemoryStore) Subscriptions() *MemorySubscriptions { return &MemorySubscriptions{s} }

// Playlists returns the playlist repository view of the store.
func (s *MemoryStore) Playlists() *MemoryPlaylists { return &MemoryPlaylists{s} }

// Relationships returns the relationship index view of the store.
func (s *MemoryStore) Relationships() *MemoryRelationships { return &MemoryRelationships{s} }

// MemoryUsers implements UserRepository over a MemoryStore.
type MemoryUsers struct{ s *MemoryStore }

func (r *MemoryUsers) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	if _, ok := r.s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r *MemoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUsers) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var byEmail *models.User
	for _, user := range r.s.users {
		if user.Username == identifier {
			return user, nil
		}
		if user.Email == identifier && (byEmail == nil || user.ID < byEmail.ID) {
			byEmail = &user
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUsers) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

func (r *MemoryUsers) UpdateAccount(_ context.Context, id, fullName, email string, updatedAt time.Time) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	email = strings.ToLower(email)
	for otherID, other := range r.s.users {
		if otherID != id && (other.Email == email || other.Username == email) {
			return models.User{}, ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = updatedAt
	r.s.users[id] = user
	return user, nil
}

func (r *MemoryUsers) UpdatePassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.Password = passwordHash
		u.UpdatedAt = updatedAt
	})
}

func (r *MemoryUsers) UpdateAvatar(_ context.Context, id string, avatar models.Asset, updatedAt time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.Avatar = avatar
		u.UpdatedAt = updatedAt
	})
}

func (r *MemoryUsers) UpdateCoverImage(_ context.Context, id string, cover models.Asset, updatedAt time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.CoverImage = cover
		u.UpdatedAt = updatedAt
	})
}

func (r *MemoryUsers) mutate(id string, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&user)
	r.s.users[id] = user
	return nil
}

func (r *MemoryUsers) PushWatchHistory(_ context.Context, userID, videoID string, watchedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return ErrNotFound
	}
	r.s.history[userID] = append(r.s.history[userID], historyEntry{videoID: videoID, watchedAt: watchedAt})
	return nil
}

func (r *MemoryUsers) WatchHistory(_ context.Context, userID string, offset, limit int) ([]string, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := r.s.history[userID]
	total := len(entries)

	var ids []string
	for i := total - 1 - offset; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, entries[i].videoID)
	}
	return ids, total, nil
}

// MemoryCredentials implements CredentialStore over a MemoryStore.
type MemoryCredentials struct{ s *MemoryStore }

func (c *MemoryCredentials) SetRefreshCredential(_ context.Context, userID, token string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	user, ok := c.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshCredential = token
	c.s.users[userID] = user
	return nil
}

func (c *MemoryCredentials) SwapRefreshCredential(_ context.Context, userID, expected, next string) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	user, ok := c.s.users[userID]
	if !ok || expected == "" || user.RefreshCredential != expected {
		return false, nil
	}
	user.RefreshCredential = next
	c.s.users[userID] = user
	return true, nil
}

func (c *MemoryCredentials) ClearRefreshCredential(ctx context.Context, userID string) error {
	return c.SetRefreshCredential(ctx, userID, "")
}

// MemoryVideos implements VideoRepository and the title search over a MemoryStore.
type MemoryVideos struct{ s *MemoryStore }

func (r *MemoryVideos) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	r.s.videos[video.ID] = video
	return nil
}

func (r *MemoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	video, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r *MemoryVideos) FindByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if video, ok := r.s.videos[id]; ok {
			out[id] = video
		}
	}
	return out, nil
}

func (r *MemoryVideos) List(_ context.Context, query VideoQuery) ([]models.Video, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var allowed map[string]bool
	if query.RestrictToIDs {
		allowed = make(map[string]bool, len(query.IDs))
		for _, id := range query.IDs {
			allowed[id] = true
		}
	}

	var liked map[string]bool
	if query.LikedBy != "" {
		liked = map[string]bool{}
		for _, like := range r.s.likes {
			if like.LikedBy == query.LikedBy && like.VideoID != "" {
				liked[like.VideoID] = true
			}
		}
	}

	var matched []models.Video
	for _, video := range r.s.videos {
		if query.OwnerID != "" && video.OwnerID != query.OwnerID {
			continue
		}
		if allowed != nil && !allowed[video.ID] {
			continue
		}
		if query.PublishedOnly && !video.IsPublished && (query.VisibleTo == "" || video.OwnerID != query.VisibleTo) {
			continue
		}
		if liked != nil && !liked[video.ID] {
			continue
		}
		matched = append(matched, video)
	}

	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})

	return window(matched, query.Offset, query.Limit), len(matched), nil
}

func (r *MemoryVideos) Update(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = video.Title
	existing.Description = video.Description
	existing.Thumbnail = video.Thumbnail
	existing.IsPublished = video.IsPublished
	existing.UpdatedAt = video.UpdatedAt
	r.s.videos[video.ID] = existing
	return nil
}

func (r *MemoryVideos) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.videos, id)
	for commentID, comment := range r.s.comments {
		if comment.VideoID == id {
			delete(r.s.comments, commentID)
		}
	}
	return nil
}

func (r *MemoryVideos) IncrementViews(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	video, ok := r.s.videos[id]
	if !ok {
		return ErrNotFound
	}
	video.Views++
	r.s.videos[id] = video
	return nil
}

// Search returns the ids of videos whose title or description contains text, ignoring case.
func (r *MemoryVideos) Search(_ context.Context, text string) ([]string, error) {
	text = strings.ToLower(strings.TrimSpace(text))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []string
	for id, video := range r.s.videos {
		if strings.Contains(strings.ToLower(video.Title), text) || strings.Contains(strings.ToLower(video.Description), text) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// MemoryComments implements CommentRepository over a MemoryStore.
type MemoryComments struct{ s *MemoryStore }

func (r *MemoryComments) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.s.videos[comment.VideoID]; !ok {
		return ErrNotFound
	}
	r.s.comments[comment.ID] = comment
	return nil
}

func (r *MemoryComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comment, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (r *MemoryComments) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	comment, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = updatedAt
	r.s.comments[id] = comment
	return comment, nil
}

func (r *MemoryComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r *MemoryComments) ListForVideo(_ context.Context, videoID string, offset, limit int) ([]models.Comment, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.Comment
	for _, comment := range r.s.comments {
		if comment.VideoID == videoID {
			matched = append(matched, comment)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})
	return window(matched, offset, limit), len(matched), nil
}

// MemoryLikes implements LikeRepository over a MemoryStore.
type MemoryLikes struct{ s *MemoryStore }

func (r *MemoryLikes) Toggle(_ context.Context, like models.Like) (bool, models.Like, error) {
	kind, targetID, ok := like.Target()
	if !ok {
		return false, models.Like{}, errors.New("like must reference exactly one target")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, existing := range r.s.likes {
		if existing.LikedBy != like.LikedBy {
			continue
		}
		if k, id, _ := existing.Target(); k == kind && id == targetID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			return true, models.Like{}, nil
		}
	}
	r.s.likes = append(r.s.likes, like)
	return false, like, nil
}

func (r *MemoryLikes) DeleteCommentLike(_ context.Context, commentID, likedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.likes[:0]
	for _, like := range r.s.likes {
		if like.CommentID == commentID && like.LikedBy == likedBy {
			continue
		}
		kept = append(kept, like)
	}
	r.s.likes = kept
	return nil
}

// MemorySubscriptions implements SubscriptionRepository over a MemoryStore.
type MemorySubscriptions struct{ s *MemoryStore }

func (r *MemorySubscriptions) Toggle(_ context.Context, sub models.Subscription) (bool, models.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, existing := range r.s.subs {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			r.s.subs = append(r.s.subs[:i], r.s.subs[i+1:]...)
			return true, models.Subscription{}, nil
		}
	}
	if _, ok := r.s.users[sub.ChannelID]; !ok {
		return false, models.Subscription{}, ErrNotFound
	}
	r.s.subs = append(r.s.subs, sub)
	return false, sub, nil
}

// MemoryPlaylists implements PlaylistRepository over a MemoryStore.
type MemoryPlaylists struct{ s *MemoryStore }

func (r *MemoryPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	playlist.VideoIDs = append([]string{}, playlist.VideoIDs...)
	r.s.playlists[playlist.ID] = playlist
	return nil
}

func (r *MemoryPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return clonePlaylist(playlist), nil
}

func (r *MemoryPlaylists) Update(_ context.Context, id, name, description string, updatedAt time.Time) (models.Playlist, error) {
	return r.mutate(id, func(p *models.Playlist) {
		p.Name = name
		p.Description = description
		p.UpdatedAt = updatedAt
	})
}

func (r *MemoryPlaylists) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.playlists, id)
	return nil
}

func (r *MemoryPlaylists) AppendVideo(_ context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error) {
	return r.mutate(id, func(p *models.Playlist) {
		p.VideoIDs = append(p.VideoIDs, videoID)
		p.UpdatedAt = updatedAt
	})
}

func (r *MemoryPlaylists) RemoveVideo(_ context.Context, id, videoID string, updatedAt time.Time) (models.Playlist, error) {
	return r.mutate(id, func(p *models.Playlist) {
		kept := make([]string, 0, len(p.VideoIDs))
		for _, existing := range p.VideoIDs {
			if existing != videoID {
				kept = append(kept, existing)
			}
		}
		p.VideoIDs = kept
		p.UpdatedAt = updatedAt
	})
}

func (r *MemoryPlaylists) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]models.Playlist, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.Playlist
	for _, playlist := range r.s.playlists {
		if playlist.OwnerID == ownerID {
			matched = append(matched, clonePlaylist(playlist))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})
	return window(matched, offset, limit), len(matched), nil
}

func (r *MemoryPlaylists) mutate(id string, fn func(*models.Playlist)) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	playlist = clonePlaylist(playlist)
	fn(&playlist)
	r.s.playlists[id] = playlist
	return clonePlaylist(playlist), nil
}

func clonePlaylist(p models.Playlist) models.Playlist {
	p.VideoIDs = append([]string{}, p.VideoIDs...)
	return p
}

// MemoryRelationships implements RelationshipIndex over a MemoryStore.
type MemoryRelationships struct{ s *MemoryStore }

func (x *MemoryRelationships) CommentLikeCounts(_ context.Context, commentIDs []string) (map[string]int64, error) {
	x.s.mu.RLock()
	defer x.s.mu.RUnlock()

	counts := make(map[string]int64, len(commentIDs))
	for _, id := range commentIDs {
		counts[id] = 0
	}
	for _, like := range x.s.likes {
		if _, ok := counts[like.CommentID]; ok && like.CommentID != "" {
			counts[like.CommentID]++
		}
	}
	return counts, nil
}

func (x *MemoryRelationships) LikedBy(_ context.Context, viewerID string, kind models.LikeTarget, ids []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(ids))
	if viewerID == "" {
		return liked, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	x.s.mu.RLock()
	defer x.s.mu.RUnlock()

	for _, like := range x.s.likes {
		if like.LikedBy != viewerID {
			continue
		}
		if k, id, _ := like.Target(); k == kind && wanted[id] {
			liked[id] = true
		}
	}
	return liked, nil
}

func (x *MemoryRelationships) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == "" {
		return false, nil
	}

	x.s.mu.RLock()
	defer x.s.mu.RUnlock()

	for _, sub := range x.s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

func (x *MemoryRelationships) SubscriberCount(_ context.Context, channelID string) (int64, error) {
	x.s.mu.RLock()
	defer x.s.mu.RUnlock()

	var n int64
	for _, sub := range x.s.subs {
		if sub.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (x *MemoryRelationships) SubscribedToCount(_ context.Context, subscriberID string) (int64, error) {
	x.s.mu.RLock()
	defer x.s.mu.RUnlock()

	var n int64
	for _, sub := range x.s.subs {
		if sub.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

func newerFirst(aAt time.Time, aID string, bAt time.Time, bID string) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID > bID
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var (
	_ UserRepository         = (*MemoryUsers)(nil)
	_ CredentialStore        = (*MemoryCredentials)(nil)
	_ VideoRepository        = (*MemoryVideos)(nil)
	_ CommentRepository      = (*MemoryComments)(nil)
	_ LikeRepository         = (*MemoryLikes)(nil)
	_ SubscriptionRepository = (*MemorySubscriptions)(nil)
	_ PlaylistRepository     = (*MemoryPlaylists)(nil)
	_ RelationshipIndex      = (*MemoryRelationships)(nil)
)
