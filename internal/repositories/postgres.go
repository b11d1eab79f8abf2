package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hotube/backend/internal/db"
	"github.com/hotube/backend/internal/models"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, user_id, name, title, category, role, password_hash, liked_videos, watched_videos, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user     models.User
		category string
		role     string
	)
	err := row.Scan(
		&user.ID, &user.UserID, &user.Name, &user.Title, &category, &role,
		&user.PasswordHash, &user.LikedVideos, &user.WatchedVideos, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.Category = models.Category(category)
	user.Role = models.Role(role)
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, user_id, name, title, category, role, password_hash, liked_videos, watched_videos, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.UserID, user.Name, user.Title, string(user.Category), string(user.Role), user.PasswordHash,
		emptyIfNil(user.LikedVideos), emptyIfNil(user.WatchedVideos), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by store id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUserID fetches a user by login handle.
func (r *PostgresUserRepository) FindByUserID(ctx context.Context, userID string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces name, title and category.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id, name, title string, category models.Category, updatedAt time.Time) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET name = $2, title = $3, category = $4, updated_at = $5
        WHERE id = $1
        RETURNING `+userColumns,
		id, name, title, string(category), updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike flips membership with a single conditional UPDATE so concurrent
// toggles never lose an update.
func (r *PostgresUserRepository) ToggleLike(ctx context.Context, id, videoID string, updatedAt time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var liked bool
	err = conn.QueryRow(ctx, `
        UPDATE users
        SET liked_videos = CASE
                WHEN $2::TEXT = ANY(liked_videos) THEN array_remove(liked_videos, $2::TEXT)
                ELSE array_append(liked_videos, $2::TEXT)
            END,
            updated_at = $3
        WHERE id = $1
        RETURNING $2::TEXT = ANY(liked_videos)
    `, id, videoID, updatedAt).Scan(&liked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

// AddWatched appends videoID to the watched set unless already present.
func (r *PostgresUserRepository) AddWatched(ctx context.Context, id, videoID string, updatedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET watched_videos = CASE
                WHEN $2::TEXT = ANY(watched_videos) THEN watched_videos
                ELSE array_append(watched_videos, $2::TEXT)
            END,
            updated_at = $3
        WHERE id = $1
    `, id, videoID, updatedAt)
	if err != nil {
		return fmt.Errorf("add watched video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
