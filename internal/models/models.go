package models

import "time"

// Asset is an opaque reference to a file held by the blob store.
type Asset struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

// IsZero reports whether the asset reference is empty.
func (a Asset) IsZero() bool {
	return a.URL == "" && a.AssetID == ""
}

// ResourceKind tells the blob store how an asset was stored.
type ResourceKind string

const (
	ResourceImage ResourceKind = "image"
	ResourceVideo ResourceKind = "video"
)

// AssetRef identifies a stored asset for deletion.
type AssetRef struct {
	AssetID string
	Kind    ResourceKind
}

// Ref returns the deletion reference of the asset.
func (a Asset) Ref(kind ResourceKind) AssetRef {
	return AssetRef{AssetID: a.AssetID, Kind: kind}
}

// User represents an account within the VidShare platform. The watch history
// sequence is stored separately and read through the user repository.
type User struct {
	ID                string
	Username          string
	Email             string
	FullName          string
	Password          string
	Avatar            Asset
	CoverImage        Asset
	RefreshCredential string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Viewer is the identity making the current request. The zero value is the anonymous viewer.
type Viewer struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     Asset     `json:"avatar"`
	CoverImage Asset     `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Anonymous is the viewer used for unauthenticated requests on public routes.
var Anonymous = Viewer{}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}

// ViewerFromUser strips the credential fields from a stored user.
func ViewerFromUser(u User) Viewer {
	return Viewer{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
	}
}

// Video is an uploaded media item owned by a single user.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	VideoFile   Asset     `json:"videoFile"`
	Thumbnail   Asset     `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VisibleTo reports whether viewerID may see the video. Unpublished videos are
// visible to their owner only.
func (v Video) VisibleTo(viewerID string) bool {
	return v.IsPublished || (viewerID != "" && v.OwnerID == viewerID)
}

// Comment is a viewer's remark attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget names the kind of entity a like edge points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Valid reports whether the target kind is one of the known kinds.
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

// Like is an edge from a user to exactly one of a video, comment or tweet.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video,omitempty"`
	CommentID string    `json:"comment,omitempty"`
	TweetID   string    `json:"tweet,omitempty"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewLike builds a like edge with the target field for kind set.
func NewLike(id, likedBy string, kind LikeTarget, targetID string, at time.Time) Like {
	like := Like{ID: id, LikedBy: likedBy, CreatedAt: at}
	switch kind {
	case LikeTargetVideo:
		like.VideoID = targetID
	case LikeTargetComment:
		like.CommentID = targetID
	case LikeTargetTweet:
		like.TweetID = targetID
	}
	return like
}

// Target returns the kind and id of the single non-empty target field.
// ok is false when zero or more than one target is set.
func (l Like) Target() (kind LikeTarget, id string, ok bool) {
	set := 0
	if l.VideoID != "" {
		kind, id = LikeTargetVideo, l.VideoID
		set++
	}
	if l.CommentID != "" {
		kind, id = LikeTargetComment, l.CommentID
		set++
	}
	if l.TweetID != "" {
		kind, id = LikeTargetTweet, l.TweetID
		set++
	}
	return kind, id, set == 1
}

// Subscription connects a subscriber to a channel (another user).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Playlist is an ordered, owner-curated sequence of videos. Duplicates are allowed.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
