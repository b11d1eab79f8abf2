package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeProvider resolves metadata through the YouTube Data API v3.
type YouTubeProvider struct {
	service *youtube.Service
}

// NewYouTubeProvider creates a Data API client authenticated with apiKey.
// Extra options are appended, which lets tests point the client at a fake endpoint.
func NewYouTubeProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeProvider, error) {
	if apiKey == "" {
		return nil, errors.New("youtube api key is required")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeProvider{service: service}, nil
}

// Lookup extracts the video id from url and fetches snippet, duration and statistics.
func (p *YouTubeProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if p == nil || p.service == nil {
		return Metadata{}, ErrProviderUnavailable
	}

	id := ExtractVideoID(url)
	if id == "" {
		return Metadata{}, ErrInvalidURL
	}

	resp, err := p.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).Id(id).Context(ctx).Do()
	if err != nil {
		return Metadata{}, fmt.Errorf("youtube videos.list %s: %w", id, err)
	}
	if len(resp.Items) == 0 {
		return Metadata{}, ErrVideoNotFound
	}

	return metadataFromVideo(resp.Items[0]), nil
}

func metadataFromVideo(video *youtube.Video) Metadata {
	meta := Metadata{VideoID: video.Id, Tags: []string{}}

	if s := video.Snippet; s != nil {
		meta.Title = s.Title
		meta.Description = s.Description
		meta.ChannelTitle = s.ChannelTitle
		meta.ThumbnailURL = bestThumbnail(s.Thumbnails)
		if s.Tags != nil {
			meta.Tags = s.Tags
		}
		if published, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			meta.PublishedAt = published
		}
	}
	if cd := video.ContentDetails; cd != nil {
		meta.DurationSeconds = ParseISODuration(cd.Duration)
	}
	if st := video.Statistics; st != nil {
		meta.ViewCount = int64(st.ViewCount)
		meta.LikeCount = int64(st.LikeCount)
	}
	return meta
}

// bestThumbnail prefers maxres, then standard, high, medium and default.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}
