package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hotube/backend/internal/db"
	"github.com/hotube/backend/internal/models"
)

// PostgresVideoRepository persists the video catalog in PostgreSQL.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, title, description, youtube_url, thumbnail_url, archived_thumbnail_url, type, year, tags,
        COALESCE(uploaded_at::TEXT, ''), duration_seconds, view_count, like_count, channel_title, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		video     models.Video
		videoType string
	)
	err := row.Scan(
		&video.ID, &video.Title, &video.Description, &video.YoutubeURL, &video.ThumbnailURL,
		&video.ArchivedThumbnailURL, &videoType, &video.Year, &video.Tags, &video.UploadedAt,
		&video.DurationSeconds, &video.ViewCount, &video.LikeCount, &video.ChannelTitle,
		&video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		return models.Video{}, err
	}
	video.Type = models.VideoType(videoType)
	return video, nil
}

// List returns the full catalog ordered by creation time, newest first.
func (r *PostgresVideoRepository) List(ctx context.Context) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Get fetches a single video by YouTube id.
func (r *PostgresVideoRepository) Get(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Create inserts a new catalog entry.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, youtube_url, thumbnail_url, type, year, tags, uploaded_at,
            duration_seconds, view_count, like_count, channel_title, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::DATE, $10, $11, $12, $13, $14, $15)
    `, video.ID, video.Title, video.Description, video.YoutubeURL, video.ThumbnailURL, string(video.Type),
		video.Year, emptyIfNil(video.Tags), video.UploadedAt, video.DurationSeconds, video.ViewCount,
		video.LikeCount, video.ChannelTitle, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	updated, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $2, description = $3, youtube_url = $4, thumbnail_url = $5, type = $6, year = $7,
            tags = $8, uploaded_at = NULLIF($9, '')::DATE, duration_seconds = $10, view_count = $11,
            like_count = $12, channel_title = $13, updated_at = $14
        WHERE id = $1
        RETURNING `+videoColumns,
		video.ID, video.Title, video.Description, video.YoutubeURL, video.ThumbnailURL, string(video.Type),
		video.Year, emptyIfNil(video.Tags), video.UploadedAt, video.DurationSeconds, video.ViewCount,
		video.LikeCount, video.ChannelTitle, video.UpdatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return updated, nil
}

// Delete removes the video and everything that references it.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete video: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete video comments: %w", err)
	}

	if _, err := tx.Exec(ctx, `
        UPDATE users
        SET liked_videos = array_remove(liked_videos, $1::TEXT),
            watched_videos = array_remove(watched_videos, $1::TEXT)
        WHERE $1::TEXT = ANY(liked_videos) OR $1::TEXT = ANY(watched_videos)
    `, id); err != nil {
		return fmt.Errorf("detach video from users: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete video: %w", err)
	}
	return nil
}

// SetArchivedThumbnail records where the thumbnail copy was stored.
func (r *PostgresVideoRepository) SetArchivedThumbnail(ctx context.Context, id, location string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET archived_thumbnail_url = $2 WHERE id = $1`, id, location)
	if err != nil {
		return fmt.Errorf("set archived thumbnail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
