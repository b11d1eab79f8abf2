package videos

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/hotube/backend/internal/models"
)

// ShortsMaxDuration is the longest duration still classified as a short.
const ShortsMaxDuration = 60 * time.Second

// Metadata is what a provider knows about a YouTube video. It pre-fills the
// catalog form so admins do not type titles and thumbnails by hand.
type Metadata struct {
	VideoID         string
	Title           string
	Description     string
	ThumbnailURL    string
	ChannelTitle    string
	PublishedAt     time.Time
	DurationSeconds int
	Tags            []string
	ViewCount       int64
	LikeCount       int64
}

// Type classifies the video by duration.
func (m Metadata) Type() models.VideoType {
	return ClassifyDuration(m.DurationSeconds)
}

// UploadedAt returns the publish date as YYYY-MM-DD, or "" when unknown.
func (m Metadata) UploadedAt() string {
	if m.PublishedAt.IsZero() {
		return ""
	}
	return m.PublishedAt.UTC().Format(time.DateOnly)
}

// Year returns the publish year, or 0 when unknown.
func (m Metadata) Year() int {
	if m.PublishedAt.IsZero() {
		return 0
	}
	return m.PublishedAt.UTC().Year()
}

// WatchURL returns the canonical watch page for the video.
func (m Metadata) WatchURL() string {
	if m.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + m.VideoID
}

// Provider returns metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, url string) (Metadata, error)

// Lookup calls f.
func (f ProviderFunc) Lookup(ctx context.Context, url string) (Metadata, error) {
	return f(ctx, url)
}

var (
	urlIDPattern  = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([^&\n?#]+)`)
	bareIDPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`)
	isoDuration   = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)
)

// ExtractVideoID returns the video id from a watch, youtu.be or shorts URL,
// or from a bare 11-character id. It returns "" when nothing matches.
func ExtractVideoID(url string) string {
	if m := urlIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := bareIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ParseISODuration converts durations such as PT4M46S into seconds. Unparseable input yields 0.
func ParseISODuration(value string) int {
	m := isoDuration.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	total := 0
	for i, unit := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}

// ClassifyDuration returns shorts for durations up to one minute.
func ClassifyDuration(seconds int) models.VideoType {
	if time.Duration(seconds)*time.Second <= ShortsMaxDuration {
		return models.VideoTypeShorts
	}
	return models.VideoTypeVideo
}
