package handlers

import (
	"time"

	"github.com/hotube/backend/internal/models"
)

type videoResponse struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	YoutubeURL           string     `json:"youtubeUrl"`
	ThumbnailURL         string     `json:"thumbnailUrl"`
	ArchivedThumbnailURL string     `json:"archivedThumbnailUrl,omitempty"`
	Type                 string     `json:"type"`
	Year                 int        `json:"year"`
	Tags                 []string   `json:"tags"`
	UploadedAt           string     `json:"uploadedAt"`
	DurationSeconds      int        `json:"durationSeconds"`
	ViewCount            int64      `json:"viewCount"`
	LikeCount            int64      `json:"likeCount"`
	ChannelTitle         string     `json:"channelTitle"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty"`
}

func newVideoResponse(v models.Video) videoResponse {
	resp := videoResponse{
		ID:                   v.ID,
		Title:                v.Title,
		Description:          v.Description,
		YoutubeURL:           v.YoutubeURL,
		ThumbnailURL:         v.ThumbnailURL,
		ArchivedThumbnailURL: v.ArchivedThumbnailURL,
		Type:                 string(v.Type),
		Year:                 v.Year,
		Tags:                 v.Tags,
		UploadedAt:           v.UploadedAt,
		DurationSeconds:      v.DurationSeconds,
		ViewCount:            v.ViewCount,
		LikeCount:            v.LikeCount,
		ChannelTitle:         v.ChannelTitle,
		CreatedAt:            v.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if !v.UpdatedAt.IsZero() {
		updated := v.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func newVideoResponses(videos []models.Video) []videoResponse {
	out := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, newVideoResponse(v))
	}
	return out
}

type userResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Role          string    `json:"role"`
	LikedVideos   []string  `json:"likedVideos"`
	WatchedVideos []string  `json:"watchedVideos"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	resp := userResponse{
		ID:            u.ID,
		UserID:        u.UserID,
		Name:          u.Name,
		Title:         u.Title,
		Category:      string(u.Category),
		Role:          string(u.Role),
		LikedVideos:   u.LikedVideos,
		WatchedVideos: u.WatchedVideos,
		CreatedAt:     u.CreatedAt,
	}
	if resp.LikedVideos == nil {
		resp.LikedVideos = []string{}
	}
	if resp.WatchedVideos == nil {
		resp.WatchedVideos = []string{}
	}
	return resp
}

type commentResponse struct {
	ID           string     `json:"id"`
	VideoID      string     `json:"videoId"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName"`
	UserTitle    string     `json:"userTitle"`
	UserCategory string     `json:"userCategory"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

func newCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:           c.ID,
		VideoID:      c.VideoID,
		UserID:       c.UserID,
		UserName:     c.UserName,
		UserTitle:    c.UserTitle,
		UserCategory: string(c.UserCategory),
		Content:      c.Content,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
