package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hotube/backend/internal/logging"
	"github.com/hotube/backend/internal/videos"
)

// LookupHandler prefills the admin video form from YouTube.
type LookupHandler struct {
	Metadata VideoMetadataProvider
}

type lookupResponse struct {
	VideoID         string   `json:"videoId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	ChannelTitle    string   `json:"channelTitle"`
	UploadedAt      string   `json:"uploadedAt"`
	Year            int      `json:"year"`
	Type            string   `json:"type"`
	DurationSeconds int      `json:"durationSeconds"`
	Tags            []string `json:"tags"`
	ViewCount       int64    `json:"viewCount"`
	LikeCount       int64    `json:"likeCount"`
	YoutubeURL      string   `json:"youtubeUrl"`
}

// Lookup handles GET /youtube/lookup?url=.
func (h LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Metadata == nil {
		respondJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Error: "youtube lookup is not configured"})
		return
	}

	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	meta, err := h.Metadata.Lookup(ctx, url)
	switch {
	case errors.Is(err, videos.ErrInvalidURL):
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid youtube url"})
		return
	case errors.Is(err, videos.ErrVideoNotFound):
		respondJSON(ctx, w, http.StatusNotFound, errorResponse{Error: "youtube video not found"})
		return
	case errors.Is(err, videos.ErrProviderUnavailable):
		respondJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Error: "youtube lookup is not configured"})
		return
	case err != nil:
		logging.FromContext(ctx).Error("youtube lookup failed", "url", url, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, errorResponse{Error: "failed to fetch youtube metadata"})
		return
	}

	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	respondJSON(ctx, w, http.StatusOK, lookupResponse{
		VideoID:         meta.VideoID,
		Title:           meta.Title,
		Description:     meta.Description,
		ThumbnailURL:    meta.ThumbnailURL,
		ChannelTitle:    meta.ChannelTitle,
		UploadedAt:      meta.UploadedAt(),
		Year:            meta.Year(),
		Type:            string(meta.Type()),
		DurationSeconds: meta.DurationSeconds,
		Tags:            tags,
		ViewCount:       meta.ViewCount,
		LikeCount:       meta.LikeCount,
		YoutubeURL:      meta.WatchURL(),
	})
}
