package videos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hotube/backend/internal/apperr"
	"github.com/hotube/backend/internal/auth"
	"github.com/hotube/backend/internal/logging"
	"github.com/hotube/backend/internal/models"
	"github.com/hotube/backend/internal/repositories"
)

// Cache stores catalog reads. Implementations report a miss with ok=false.
//
// Every Invalidate advances the generation. Writers read Generation before
// loading from the store, and SetVideos/SetVideo drop the write when the
// generation moved in between, so a snapshot taken before a write is never
// cached after it.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	GetVideos(ctx context.Context) (videos []models.Video, ok bool, err error)
	SetVideos(ctx context.Context, gen int64, videos []models.Video) error
	GetVideo(ctx context.Context, id string) (video models.Video, ok bool, err error)
	SetVideo(ctx context.Context, gen int64, video models.Video) error
	// Invalidate advances the generation and drops the list entry and the entries of the given ids.
	Invalidate(ctx context.Context, ids ...string) error
}

// Archiver copies thumbnails of newly created videos into object storage.
type Archiver interface {
	Enqueue(ctx context.Context, video models.Video) bool
}

// UserLookup resolves the member behind a write request.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Input carries the client-editable fields of a video. Pointer fields are
// optional on update and keep their stored value when nil.
type Input struct {
	ID              string
	Title           string
	Description     string
	YoutubeURL      string
	ThumbnailURL    string
	Type            string
	Year            int
	Tags            []string
	UploadedAt      string
	DurationSeconds *int
	ViewCount       *int64
	LikeCount       *int64
	ChannelTitle    *string
}

// Catalog is the video catalog service.
type Catalog struct {
	videos   repositories.VideoRepository
	cache    Cache
	archiver Archiver
	users    UserLookup
	policy   auth.Policy
	now      func() time.Time
}

// CatalogOption customises a Catalog.
type CatalogOption func(*Catalog)

// WithCache enables cache-aside reads.
func WithCache(cache Cache) CatalogOption {
	return func(c *Catalog) { c.cache = cache }
}

// WithPolicy applies policy to writes, resolving requesters through users.
func WithPolicy(policy auth.Policy, users UserLookup) CatalogOption {
	return func(c *Catalog) {
		c.policy = policy
		c.users = users
	}
}

// WithCatalogClock overrides the time source.
func WithCatalogClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// NewCatalog constructs the catalog over repo.
func NewCatalog(repo repositories.VideoRepository, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		videos: repo,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetArchiver attaches the thumbnail archiver after construction, since the
// archiver reports back through the catalog.
func (c *Catalog) SetArchiver(a Archiver) {
	c.archiver = a
}

var (
	errVideoNotFound = apperr.NotFound("video not found")
	errVideoExists   = apperr.Conflict("video is already registered")
)

// List returns every video, newest first.
func (c *Catalog) List(ctx context.Context) ([]models.Video, error) {
	logger := logging.FromContext(ctx)

	gen, cacheable := c.generation(ctx)
	if cacheable {
		cached, ok, err := c.cache.GetVideos(ctx)
		if err != nil {
			logger.Warn("video cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	videos, err := c.videos.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load videos", err)
	}

	if cacheable {
		if err := c.cache.SetVideos(ctx, gen, videos); err != nil {
			logger.Warn("video cache write failed", "error", err)
		}
	}
	return videos, nil
}

// Get returns one video.
func (c *Catalog) Get(ctx context.Context, id string) (models.Video, error) {
	if strings.TrimSpace(id) == "" {
		return models.Video{}, errVideoNotFound
	}
	logger := logging.FromContext(ctx)

	gen, cacheable := c.generation(ctx)
	if cacheable {
		cached, ok, err := c.cache.GetVideo(ctx, id)
		if err != nil {
			logger.Warn("video cache read failed", "id", id, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	video, err := c.load(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	if cacheable {
		if err := c.cache.SetVideo(ctx, gen, video); err != nil {
			logger.Warn("video cache write failed", "id", id, "error", err)
		}
	}
	return video, nil
}

// Create registers a video under its YouTube id.
func (c *Catalog) Create(ctx context.Context, requesterID string, in Input) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.create")
	defer span.End()

	if err := c.authorize(ctx, requesterID, auth.ActionCreate); err != nil {
		return models.Video{}, err
	}

	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return models.Video{}, apperr.Validation("videoId is required")
	}
	if in.Type == "" {
		in.Type = string(models.VideoTypeVideo)
	}
	if err := validate(&in); err != nil {
		return models.Video{}, err
	}

	now := c.now()
	video := models.Video{
		ID:           in.ID,
		Title:        in.Title,
		Description:  in.Description,
		YoutubeURL:   in.YoutubeURL,
		ThumbnailURL: in.ThumbnailURL,
		Type:         models.VideoType(in.Type),
		Year:         in.Year,
		Tags:         tagsOrEmpty(in.Tags),
		UploadedAt:   in.UploadedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyOptional(&video, in)

	if err := c.videos.Create(ctx, video); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Video{}, errVideoExists
		}
		return models.Video{}, apperr.Internal("failed to register video", err)
	}

	c.invalidate(ctx, video.ID)
	if c.archiver != nil && video.ThumbnailURL != "" {
		c.archiver.Enqueue(ctx, video)
	}

	logging.FromContext(ctx).Info("video registered", "id", video.ID, "type", video.Type)
	return video, nil
}

// Update replaces the core fields of a stored video. An omitted core field
// resets to its zero value, except type which keeps the stored value. The
// metadata counters and channel title are only overwritten when present.
func (c *Catalog) Update(ctx context.Context, requesterID, id string, in Input) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.update")
	defer span.End()

	if err := c.authorize(ctx, requesterID, auth.ActionUpdate); err != nil {
		return models.Video{}, err
	}

	current, err := c.load(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	if in.Type == "" {
		in.Type = string(current.Type)
	}
	if err := validate(&in); err != nil {
		return models.Video{}, err
	}

	current.Title = in.Title
	current.Description = in.Description
	current.YoutubeURL = in.YoutubeURL
	current.ThumbnailURL = in.ThumbnailURL
	current.Type = models.VideoType(in.Type)
	current.Year = in.Year
	current.Tags = tagsOrEmpty(in.Tags)
	current.UploadedAt = in.UploadedAt
	current.UpdatedAt = c.now()
	applyOptional(&current, in)

	updated, err := c.videos.Update(ctx, current)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, errVideoNotFound
		}
		return models.Video{}, apperr.Internal("failed to update video", err)
	}

	c.invalidate(ctx, id)
	return updated, nil
}

// Delete removes a video together with its comments and every like and
// watch reference. It returns the deleted id.
func (c *Catalog) Delete(ctx context.Context, requesterID, id string) (string, error) {
	ctx, span := logging.StartSpan(ctx, "videos.delete")
	defer span.End()

	if err := c.authorize(ctx, requesterID, auth.ActionDelete); err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", errVideoNotFound
	}

	if err := c.videos.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", errVideoNotFound
		}
		return "", apperr.Internal("failed to delete video", err)
	}

	c.invalidate(ctx, id)
	logging.FromContext(ctx).Info("video deleted", "id", id)
	return id, nil
}

// RecordArchivedThumbnail stores the object storage location of a video's thumbnail.
func (c *Catalog) RecordArchivedThumbnail(ctx context.Context, id, location string) error {
	if err := c.videos.SetArchivedThumbnail(ctx, id, location); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Catalog) load(ctx context.Context, id string) (models.Video, error) {
	video, err := c.videos.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, errVideoNotFound
		}
		return models.Video{}, apperr.Internal("failed to load video", err)
	}
	return video, nil
}

func (c *Catalog) authorize(ctx context.Context, requesterID string, action auth.Action) error {
	if !c.policy.VideoWritesAdminOnly {
		return nil
	}

	requester := auth.Principal{ID: requesterID}
	if requesterID != "" && c.users != nil {
		user, err := c.users.FindByID(ctx, requesterID)
		switch {
		case err == nil:
			requester.Role = user.Role
		case !errors.Is(err, repositories.ErrNotFound):
			return apperr.Internal("failed to load requester", err)
		}
	}
	return c.policy.Authorize(requester, auth.Resource{Kind: auth.ResourceVideo}, action)
}

// generation reports the cache generation and whether the cache can be used.
// An unreadable generation bypasses the cache for the whole call.
func (c *Catalog) generation(ctx context.Context) (int64, bool) {
	if c.cache == nil {
		return 0, false
	}
	gen, err := c.cache.Generation(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("video cache generation read failed", "error", err)
		return 0, false
	}
	return gen, true
}

func (c *Catalog) invalidate(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("video cache invalidation failed", "id", id, "error", err)
	}
}

func validate(in *Input) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation("title is required")
	}
	if !models.VideoType(in.Type).Valid() {
		return apperr.Validation("type must be video or shorts")
	}
	if in.Year < 0 {
		return apperr.Validation("year must not be negative")
	}
	if (in.DurationSeconds != nil && *in.DurationSeconds < 0) ||
		(in.ViewCount != nil && *in.ViewCount < 0) ||
		(in.LikeCount != nil && *in.LikeCount < 0) {
		return apperr.Validation("durationSeconds, viewCount and likeCount must not be negative")
	}

	uploaded, err := normalizeDate(in.UploadedAt)
	if err != nil {
		return apperr.Validation("uploadedAt must be a YYYY-MM-DD date")
	}
	in.UploadedAt = uploaded
	return nil
}

// normalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the date part.
func normalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.Format(time.DateOnly), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.DateOnly), nil
}

func applyOptional(v *models.Video, in Input) {
	if in.DurationSeconds != nil {
		v.DurationSeconds = *in.DurationSeconds
	}
	if in.ViewCount != nil {
		v.ViewCount = *in.ViewCount
	}
	if in.LikeCount != nil {
		v.LikeCount = *in.LikeCount
	}
	if in.ChannelTitle != nil {
		v.ChannelTitle = *in.ChannelTitle
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
