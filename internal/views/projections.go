package views

import (
	"time"

	"github.com/vidshare/backend/internal/models"
)

// OwnerProfile is the public subset of a user joined onto other entities.
type OwnerProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

// FeedVideo is a video card with its owner, used by the feed and watch history.
type FeedVideo struct {
	ID          string       `json:"id"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublished bool         `json:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt"`
	Owner       OwnerProfile `json:"owner"`
}

// LikedVideo wraps a video the viewer has liked.
type LikedVideo struct {
	Video FeedVideo `json:"likedVideo"`
}

// ThreadComment is a comment annotated with its like count and the viewer's like.
type ThreadComment struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Owner      OwnerProfile `json:"owner"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`
}

// ChannelProfile is the public view of a user's channel. Email and credentials are never included.
type ChannelProfile struct {
	ID                        string    `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// PlaylistVideo is a member of a playlist, in playlist order.
type PlaylistVideo struct {
	ID          string    `json:"id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PlaylistDetail is a playlist with its videos and owner.
type PlaylistDetail struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	TotalVideos int             `json:"totalVideos"`
	TotalViews  int64           `json:"totalViews"`
	Owner       OwnerProfile    `json:"owner"`
	Videos      []PlaylistVideo `json:"videos"`
}

// PlaylistSummary lists a playlist without its members.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TotalVideos int       `json:"totalVideos"`
	TotalViews  int64     `json:"totalViews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ownerProfile(ownerID string, owners map[string]models.User) OwnerProfile {
	owner, ok := owners[ownerID]
	if !ok {
		return OwnerProfile{ID: ownerID}
	}
	return OwnerProfile{
		ID:       owner.ID,
		Username: owner.Username,
		FullName: owner.FullName,
		Avatar:   owner.Avatar.URL,
	}
}

func feedVideo(video models.Video, owners map[string]models.User) FeedVideo {
	return FeedVideo{
		ID:          video.ID,
		VideoFile:   video.VideoFile.URL,
		Thumbnail:   video.Thumbnail.URL,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration,
		Views:       video.Views,
		IsPublished: video.IsPublished,
		CreatedAt:   video.CreatedAt,
		Owner:       ownerProfile(video.OwnerID, owners),
	}
}

func playlistVideo(video models.Video) PlaylistVideo {
	return PlaylistVideo{
		ID:          video.ID,
		VideoFile:   video.VideoFile.URL,
		Thumbnail:   video.Thumbnail.URL,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration,
		Views:       video.Views,
		CreatedAt:   video.CreatedAt,
	}
}
