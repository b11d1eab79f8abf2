package repositories

import (
	"context"
	"time"

	"github.com/hotube/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	Get(ctx context.Context, id string) (models.Comment, error)
	// ListByVideo returns comments on videoID, newest first. An empty category
	// returns every comment; otherwise only comments whose author snapshot has
	// that category.
	ListByVideo(ctx context.Context, videoID string, category models.Category) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}
