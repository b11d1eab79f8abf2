package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPProvider resolves metadata with the yt-dlp CLI. It needs no API key
// and backs up the Data API provider when quota runs out.
type YTDLPProvider struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPProvider constructs a Provider that shells out to yt-dlp.
func NewYTDLPProvider(binary string, timeout time.Duration) *YTDLPProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProvider{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

type ytdlpPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Channel     string   `json:"channel"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"`
	Duration    float64  `json:"duration"`
	Tags        []string `json:"tags"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
}

// Lookup executes yt-dlp for the video behind url and parses the JSON dump.
func (p *YTDLPProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if p == nil {
		return Metadata{}, ErrProviderUnavailable
	}
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	id := ExtractVideoID(url)
	if id == "" {
		return Metadata{}, ErrInvalidURL
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, Metadata{VideoID: id}.WatchURL())

	out, err := run(execCtx, p.Binary, args...)
	if err != nil {
		return Metadata{}, fmt.Errorf("yt-dlp lookup: %w", err)
	}

	var payload ytdlpPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return Metadata{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}
	if payload.Title == "" && payload.Thumbnail == "" {
		return Metadata{}, errors.New("yt-dlp returned empty metadata")
	}

	return payload.metadata(id), nil
}

func (p ytdlpPayload) metadata(fallbackID string) Metadata {
	meta := Metadata{
		VideoID:         p.ID,
		Title:           p.Title,
		Description:     p.Description,
		ThumbnailURL:    p.Thumbnail,
		ChannelTitle:    p.Channel,
		DurationSeconds: int(p.Duration),
		Tags:            p.Tags,
		ViewCount:       p.ViewCount,
		LikeCount:       p.LikeCount,
	}
	if meta.VideoID == "" {
		meta.VideoID = fallbackID
	}
	if meta.ChannelTitle == "" {
		meta.ChannelTitle = p.Uploader
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	// upload_date is YYYYMMDD
	if published, err := time.Parse("20060102", p.UploadDate); err == nil {
		meta.PublishedAt = published
	}
	return meta
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

// Fallback returns a Provider that tries each provider in order and returns the
// first success. Invalid URLs and unknown videos stop the chain immediately.
func Fallback(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context, url string) (Metadata, error) {
		err := ErrProviderUnavailable
		for _, provider := range providers {
			if provider == nil {
				continue
			}
			meta, lookupErr := provider.Lookup(ctx, url)
			if lookupErr == nil {
				return meta, nil
			}
			if errors.Is(lookupErr, ErrInvalidURL) || errors.Is(lookupErr, ErrVideoNotFound) {
				return Metadata{}, lookupErr
			}
			err = lookupErr
		}
		return Metadata{}, err
	})
}
