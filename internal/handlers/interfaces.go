package handlers

import (
	"context"

	"github.com/hotube/backend/internal/accounts"
	"github.com/hotube/backend/internal/models"
	"github.com/hotube/backend/internal/videos"
)

// VideoCatalog captures the catalog operations behind the video routes.
type VideoCatalog interface {
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	Create(ctx context.Context, requesterID string, in videos.Input) (models.Video, error)
	Update(ctx context.Context, requesterID, id string, in videos.Input) (models.Video, error)
	Delete(ctx context.Context, requesterID, id string) (string, error)
}

// AccountService captures account operations behind the user routes.
type AccountService interface {
	Register(ctx context.Context, reg accounts.Registration) (models.User, error)
	Login(ctx context.Context, userID, password string) (models.User, error)
	GetProfile(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, upd accounts.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	ToggleLike(ctx context.Context, id, videoID string) (bool, error)
	MarkWatched(ctx context.Context, id, videoID string) error
}

// CommentService captures comment operations behind the comment routes.
type CommentService interface {
	Create(ctx context.Context, videoID, userID, content string) (models.Comment, error)
	List(ctx context.Context, videoID, category, role string) ([]models.Comment, error)
	Update(ctx context.Context, commentID, userID, content string) (models.Comment, error)
	Delete(ctx context.Context, commentID, userID string) error
}

// VideoMetadataProvider resolves YouTube details for the admin form.
type VideoMetadataProvider interface {
	Lookup(ctx context.Context, url string) (videos.Metadata, error)
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error
