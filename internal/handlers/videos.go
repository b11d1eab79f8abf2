package handlers

import (
	"net/http"
	"strings"

	"github.com/hotube/backend/internal/videos"
)

// RequesterHeader identifies the member performing a catalog write.
const RequesterHeader = "X-User-Id"

// VideoHandler serves the catalog routes.
type VideoHandler struct {
	Videos VideoCatalog
}

type videoRequest struct {
	VideoID         string   `json:"videoId"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	YoutubeURL      string   `json:"youtubeUrl"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	Type            string   `json:"type"`
	Year            int      `json:"year"`
	Tags            []string `json:"tags"`
	UploadedAt      string   `json:"uploadedAt"`
	DurationSeconds *int     `json:"durationSeconds"`
	ViewCount       *int64   `json:"viewCount"`
	LikeCount       *int64   `json:"likeCount"`
	ChannelTitle    *string  `json:"channelTitle"`
}

func (req videoRequest) input() videos.Input {
	id := req.VideoID
	if id == "" {
		id = req.ID
	}
	return videos.Input{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		YoutubeURL:      req.YoutubeURL,
		ThumbnailURL:    req.ThumbnailURL,
		Type:            req.Type,
		Year:            req.Year,
		Tags:            req.Tags,
		UploadedAt:      req.UploadedAt,
		DurationSeconds: req.DurationSeconds,
		ViewCount:       req.ViewCount,
		LikeCount:       req.LikeCount,
		ChannelTitle:    req.ChannelTitle,
	}
}

func requester(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(RequesterHeader))
}

// List handles GET /videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.Videos.List(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponses(list))
}

// Get handles GET /videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Videos.Get(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// Create handles POST /videos.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Create(ctx, requester(r), req.input())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newVideoResponse(video))
}

// Update handles PUT /videos/{id}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Update(ctx, requester(r), r.PathValue("id"), req.input())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// Delete handles DELETE /videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := h.Videos.Delete(ctx, requester(r), r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, messageResponse{Message: "video deleted", ID: id})
}
