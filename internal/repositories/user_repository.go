package repositories

import (
	"context"
	"time"

	"github.com/hotube/backend/internal/models"
)

// UserRepository defines the data access contract for family member accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUserID(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, title string, category models.Category, updatedAt time.Time) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	// ToggleLike flips membership of videoID in the liked set atomically and
	// reports whether the video is liked afterwards.
	ToggleLike(ctx context.Context, id, videoID string, updatedAt time.Time) (bool, error)
	// AddWatched adds videoID to the watched set. Adding twice is a no-op.
	AddWatched(ctx context.Context, id, videoID string, updatedAt time.Time) error
}
