package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotube/backend/internal/models"
)

var testPool *pgxpool.Pool

// TestMain starts a throwaway CockroachDB node for the postgres repositories.
// When the node cannot start, the integration tests skip and the memory and
// firestore mapping tests still run.
func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "imobu", models.CategoryMom)

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate userId, got %v", err)
	}

	fetched, err := repo.FindByUserID(ctx, "imobu")
	if err != nil {
		t.Fatalf("find by userId: %v", err)
	}
	if fetched.ID != user.ID || fetched.Role != models.RoleUser || fetched.Category != models.CategoryMom {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}
	if fetched.LikedVideos == nil || len(fetched.LikedVideos) != 0 {
		t.Fatalf("expected empty liked set, got %v", fetched.LikedVideos)
	}

	updated, err := repo.UpdateProfile(ctx, user.ID, "큰이모부", "이모부", models.CategoryMom, time.Now().UTC())
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "큰이모부" || updated.PasswordHash != user.PasswordHash {
		t.Fatalf("expected only profile fields to change, got %+v", updated)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "rotated-hash", time.Now().UTC()); err != nil {
		t.Fatalf("update password: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.PasswordHash != "rotated-hash" {
		t.Fatalf("expected password hash to rotate, got %q", fetched.PasswordHash)
	}

	if _, err := repo.UpdateProfile(ctx, uuid.NewString(), "x", "기타", models.CategoryEtc, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
	if err := repo.UpdatePassword(ctx, uuid.NewString(), "hash", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound rotating missing password, got %v", err)
	}
}

func TestPostgresUserRepository_LikesAndWatched(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "gomobu", models.CategoryDad)

	liked, err := repo.ToggleLike(ctx, user.ID, "dQw4w9WgXcQ", time.Now().UTC())
	if err != nil || !liked {
		t.Fatalf("expected first toggle to like, got %v %v", liked, err)
	}
	liked, err = repo.ToggleLike(ctx, user.ID, "dQw4w9WgXcQ", time.Now().UTC())
	if err != nil || liked {
		t.Fatalf("expected second toggle to unlike, got %v %v", liked, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ToggleLike(ctx, user.ID, "jNQXAC9IVRw", time.Now().UTC()); err != nil {
				t.Errorf("concurrent toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.HasLiked("jNQXAC9IVRw") {
		t.Fatalf("expected even toggles to leave video unliked, got %v", fetched.LikedVideos)
	}

	for i := 0; i < 2; i++ {
		if err := repo.AddWatched(ctx, user.ID, "dQw4w9WgXcQ", time.Now().UTC()); err != nil {
			t.Fatalf("add watched: %v", err)
		}
	}
	fetched, _ = repo.FindByID(ctx, user.ID)
	if len(fetched.WatchedVideos) != 1 {
		t.Fatalf("expected single watched entry, got %v", fetched.WatchedVideos)
	}

	if _, err := repo.ToggleLike(ctx, uuid.NewString(), "dQw4w9WgXcQ", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound toggling for missing user, got %v", err)
	}
	if err := repo.AddWatched(ctx, uuid.NewString(), "dQw4w9WgXcQ", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound marking watched for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresVideoRepository(testPool)
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := models.Video{ID: "jNQXAC9IVRw", Title: "Me at the zoo", Type: models.VideoTypeVideo, Year: 2005,
		Tags: []string{}, UploadedAt: "2005-04-24", CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)}
	newer := models.Video{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Type: models.VideoTypeVideo,
		Year: 2009, Tags: []string{"music", "80s"}, UploadedAt: "2009-10-25", DurationSeconds: 213,
		ViewCount: 10, CreatedAt: now, UpdatedAt: now}

	for _, v := range []models.Video{older, newer} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("create %s: %v", v.ID, err)
		}
	}
	if err := repo.Create(ctx, older); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate id, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	fetched, err := repo.Get(ctx, newer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.UploadedAt != "2009-10-25" || len(fetched.Tags) != 2 || fetched.DurationSeconds != 213 {
		t.Fatalf("unexpected fetched video: %+v", fetched)
	}

	update := fetched
	update.Title = "Rick Astley - Never Gonna Give You Up"
	update.Type = models.VideoTypeShorts
	update.Tags = nil
	update.UploadedAt = ""
	update.UpdatedAt = now.Add(time.Minute)
	updated, err := repo.Update(ctx, update)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != update.Title || updated.Type != models.VideoTypeShorts || len(updated.Tags) != 0 || updated.UploadedAt != "" {
		t.Fatalf("unexpected updated video: %+v", updated)
	}
	if !timesClose(updated.CreatedAt, now, time.Millisecond) {
		t.Fatalf("expected createdAt to be preserved, got %v", updated.CreatedAt)
	}

	if err := repo.SetArchivedThumbnail(ctx, newer.ID, "https://cdn.example.com/thumbnails/dQw4w9WgXcQ.jpg"); err != nil {
		t.Fatalf("set archived thumbnail: %v", err)
	}
	fetched, _ = repo.Get(ctx, newer.ID)
	if fetched.ArchivedThumbnailURL == "" {
		t.Fatal("expected archived thumbnail url to persist")
	}

	if _, err := repo.Get(ctx, "missing0000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, models.Video{ID: "missing0000", Title: "x", Type: models.VideoTypeVideo}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing video, got %v", err)
	}
}

func TestPostgresVideoRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	videos := NewPostgresVideoRepository(testPool)
	users := NewPostgresUserRepository(testPool)
	comments := NewPostgresCommentRepository(testPool)
	now := time.Now().UTC()

	for _, id := range []string{"dQw4w9WgXcQ", "jNQXAC9IVRw"} {
		if err := videos.Create(ctx, models.Video{ID: id, Title: id, Type: models.VideoTypeVideo, CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	user := createTestUser(t, users, "oehalmi", models.CategoryMom)
	_, _ = users.ToggleLike(ctx, user.ID, "dQw4w9WgXcQ", now)
	_, _ = users.ToggleLike(ctx, user.ID, "jNQXAC9IVRw", now)
	_ = users.AddWatched(ctx, user.ID, "dQw4w9WgXcQ", now)

	doomed := models.Comment{ID: uuid.NewString(), VideoID: "dQw4w9WgXcQ", UserID: user.ID, UserName: user.Name,
		UserTitle: user.Title, UserCategory: user.Category, Content: "좋아요", CreatedAt: now}
	kept := doomed
	kept.ID = uuid.NewString()
	kept.VideoID = "jNQXAC9IVRw"
	for _, c := range []models.Comment{doomed, kept} {
		if err := comments.Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	if err := videos.Delete(ctx, "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if err := videos.Delete(ctx, "dQw4w9WgXcQ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	if _, err := comments.Get(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected comment of deleted video to be removed, got %v", err)
	}
	if _, err := comments.Get(ctx, kept.ID); err != nil {
		t.Fatalf("expected unrelated comment to remain: %v", err)
	}

	fetched, err := users.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.HasLiked("dQw4w9WgXcQ") || fetched.HasWatched("dQw4w9WgXcQ") {
		t.Fatalf("expected deleted video to be detached from user sets: %+v", fetched)
	}
	if !fetched.HasLiked("jNQXAC9IVRw") {
		t.Fatal("expected unrelated like to survive the cascade")
	}
}

func TestPostgresCommentRepository_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresCommentRepository(testPool)
	base := time.Now().UTC().Truncate(time.Millisecond)

	seed := []models.Comment{
		{ID: uuid.NewString(), VideoID: "dQw4w9WgXcQ", UserID: "u1", UserName: "고모", UserTitle: "고모", UserCategory: models.CategoryDad, Content: "first", CreatedAt: base},
		{ID: uuid.NewString(), VideoID: "dQw4w9WgXcQ", UserID: "u2", UserName: "이모", UserTitle: "이모", UserCategory: models.CategoryMom, Content: "second", CreatedAt: base.Add(time.Second)},
		{ID: uuid.NewString(), VideoID: "dQw4w9WgXcQ", UserID: "u1", UserName: "고모", UserTitle: "고모", UserCategory: models.CategoryDad, Content: "third", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, c := range seed {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	all, err := repo.ListByVideo(ctx, "dQw4w9WgXcQ", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || all[0].Content != "third" || all[2].Content != "first" {
		t.Fatalf("unexpected comment order: %+v", all)
	}

	dad, err := repo.ListByVideo(ctx, "dQw4w9WgXcQ", models.CategoryDad)
	if err != nil {
		t.Fatalf("list dad: %v", err)
	}
	if len(dad) != 2 {
		t.Fatalf("expected 2 dad comments, got %d", len(dad))
	}
	for _, c := range dad {
		if c.UserCategory != models.CategoryDad {
			t.Fatalf("unexpected category leaked: %+v", c)
		}
	}

	if all[0].UpdatedAt != nil {
		t.Fatal("expected fresh comment to have no updatedAt")
	}
	edited, err := repo.UpdateContent(ctx, seed[0].ID, "edited", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("update content: %v", err)
	}
	if edited.Content != "edited" || edited.UpdatedAt == nil {
		t.Fatalf("unexpected edited comment: %+v", edited)
	}

	if err := repo.Delete(ctx, seed[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, seed[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if _, err := repo.UpdateContent(ctx, seed[0].ID, "x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound editing deleted comment, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("cockroach test server unavailable")
	}
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE comments, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, userID string, category models.Category) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         userID,
		Title:        "기타",
		Category:     category,
		Role:         models.RoleUser,
		PasswordHash: "password-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
