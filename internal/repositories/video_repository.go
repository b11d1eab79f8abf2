package repositories

import (
	"context"

	"github.com/hotube/backend/internal/models"
)

// VideoRepository exposes data access for the video catalog.
type VideoRepository interface {
	// List returns every video, newest first.
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	Create(ctx context.Context, video models.Video) error
	// Update replaces the mutable fields of an existing video and returns the stored record.
	Update(ctx context.Context, video models.Video) (models.Video, error)
	// Delete removes the video, its comments, and its id from every user's
	// liked and watched sets in one transaction.
	Delete(ctx context.Context, id string) error
	SetArchivedThumbnail(ctx context.Context, id, location string) error
}
