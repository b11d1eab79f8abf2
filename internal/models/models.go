package models

import "time"

// VideoType distinguishes long-form videos from shorts.
type VideoType string

const (
	VideoTypeVideo  VideoType = "video"
	VideoTypeShorts VideoType = "shorts"
)

// Valid reports whether t is a known video type.
func (t VideoType) Valid() bool {
	return t == VideoTypeVideo || t == VideoTypeShorts
}

// Video is a catalog entry referencing a YouTube video. ID is the YouTube video id.
type Video struct {
	ID                   string
	Title                string
	Description          string
	YoutubeURL           string
	ThumbnailURL         string
	ArchivedThumbnailURL string
	Type                 VideoType
	Year                 int
	Tags                 []string
	UploadedAt           string
	DurationSeconds      int
	ViewCount            int64
	LikeCount            int64
	ChannelTitle         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// User is a family member account. PasswordHash never leaves the service layer.
type User struct {
	ID            string
	UserID        string
	Name          string
	Title         string
	Category      Category
	Role          Role
	PasswordHash  string
	LikedVideos   []string
	WatchedVideos []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasLiked reports whether videoID is in the user's liked set.
func (u User) HasLiked(videoID string) bool {
	return contains(u.LikedVideos, videoID)
}

// HasWatched reports whether videoID is in the user's watched set.
func (u User) HasWatched(videoID string) bool {
	return contains(u.WatchedVideos, videoID)
}

// Comment is a remark on a video. The User* fields are a snapshot of the author
// taken when the comment was written.
type Comment struct {
	ID           string
	VideoID      string
	UserID       string
	UserName     string
	UserTitle    string
	UserCategory Category
	Content      string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
