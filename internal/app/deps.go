package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hotube/backend/internal/accounts"
	"github.com/hotube/backend/internal/auth"
	"github.com/hotube/backend/internal/cache"
	"github.com/hotube/backend/internal/comments"
	"github.com/hotube/backend/internal/config"
	"github.com/hotube/backend/internal/db"
	"github.com/hotube/backend/internal/handlers"
	"github.com/hotube/backend/internal/metrics"
	"github.com/hotube/backend/internal/middleware"
	"github.com/hotube/backend/internal/repositories"
	"github.com/hotube/backend/internal/storage"
	"github.com/hotube/backend/internal/videos"
)

// cleanupFunc releases a dependency. They run in reverse order of acquisition.
type cleanupFunc func(ctx context.Context) error

type cleanups []cleanupFunc

func (c cleanups) run(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stores groups the repositories of one backend.
type stores struct {
	videos   repositories.VideoRepository
	users    repositories.UserRepository
	comments repositories.CommentRepository
	ping     handlers.HealthCheck
}

func openStores(ctx context.Context, cfg config.Config, m *metrics.Metrics) (stores, cleanupFunc, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, nil, err
		}
		m.RegisterPool(pool)
		return stores{
				videos:   repositories.NewPostgresVideoRepository(pool),
				users:    repositories.NewPostgresUserRepository(pool),
				comments: repositories.NewPostgresCommentRepository(pool),
				ping:     pool.Ping,
			}, func(context.Context) error {
				pool.Close()
				return nil
			}, nil
	case config.StoreFirestore:
		client, err := repositories.NewFirestoreClient(ctx, repositories.FirestoreConfig{
			ProjectID:       cfg.FirebaseProject,
			CredentialsPath: cfg.FirebaseCredentials,
		})
		if err != nil {
			return stores{}, nil, err
		}
		return stores{
				videos:   repositories.NewFirestoreVideoRepository(client),
				users:    repositories.NewFirestoreUserRepository(client),
				comments: repositories.NewFirestoreCommentRepository(client),
			}, func(context.Context) error {
				return client.Close()
			}, nil
	case config.StoreMemory:
		mem := repositories.NewMemoryStore()
		return stores{
				videos:   mem.Videos(),
				users:    mem.Users(),
				comments: mem.Comments(),
			}, func(context.Context) error {
				return nil
			}, nil
	default:
		return stores{}, nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the archiver and closes connections.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (handlers.Dependencies, func(context.Context) error, error) {
	var release cleanups
	fail := func(err error) (handlers.Dependencies, func(context.Context) error, error) {
		_ = release.run(context.Background())
		return handlers.Dependencies{}, nil, err
	}

	st, closeStore, err := openStores(ctx, cfg, m)
	if err != nil {
		return fail(err)
	}
	release = append(release, closeStore)

	checks := map[string]handlers.HealthCheck{}
	if st.ping != nil {
		checks["database"] = st.ping
	}

	policy := auth.Policy{VideoWritesAdminOnly: cfg.VideoWritesAdminOnly}
	catalogOpts := []videos.CatalogOption{videos.WithPolicy(policy, st.users)}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fail(err)
	}
	if rdb != nil {
		videoCache := cache.NewVideoCache(rdb, cfg.CacheTTL)
		catalogOpts = append(catalogOpts, videos.WithCache(videoCache))
		checks["redis"] = videoCache.Ping
		release = append(release, func(context.Context) error { return rdb.Close() })
	}

	catalog := videos.NewCatalog(st.videos, catalogOpts...)

	if cfg.ThumbnailBucket != "" {
		thumbs, err := storage.NewS3Storage(ctx, storage.Config{
			Bucket:        cfg.ThumbnailBucket,
			Region:        cfg.ThumbnailRegion,
			Endpoint:      cfg.ThumbnailEndpoint,
			PublicBaseURL: cfg.ThumbnailPublicURL,
		})
		if err != nil {
			return fail(err)
		}
		archiver := videos.NewThumbnailArchiver(thumbs, catalog, videos.ArchiverConfig{
			OnResult: m.ThumbnailArchived,
		}, logger)
		catalog.SetArchiver(archiver)
		release = append(release, archiver.Shutdown)
	} else {
		logger.Info("thumbnail archiving disabled", "reason", "HOTUBE_THUMBNAIL_BUCKET not set")
	}

	metadata, err := newMetadataProvider(ctx, cfg, m)
	if err != nil {
		return fail(err)
	}

	deps := handlers.Dependencies{
		Videos:        catalog,
		Accounts:      accounts.NewService(st.users),
		Comments:      comments.NewService(st.comments, st.users, policy),
		VideoMetadata: metadata,
		HealthChecks:  checks,
		Metrics:       m.Handler(),
	}
	if cfg.AuthRateLimit > 0 {
		deps.AuthLimiter = middleware.NewKeyedRateLimiter(cfg.AuthRateLimit, time.Minute, cfg.AuthRateLimit, 10*time.Minute)
	}

	return deps, release.run, nil
}

// newMetadataProvider prefers the YouTube Data API when a key is configured
// and falls back to yt-dlp. Upstream lookups are counted before the cache.
func newMetadataProvider(ctx context.Context, cfg config.Config, m *metrics.Metrics) (videos.Provider, error) {
	var chain []videos.Provider
	if cfg.YouTubeAPIKey != "" {
		yt, err := videos.NewYouTubeProvider(ctx, cfg.YouTubeAPIKey)
		if err != nil {
			return nil, err
		}
		chain = append(chain, yt)
	}
	chain = append(chain, videos.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout))

	return videos.NewCachingProvider(countLookups(videos.Fallback(chain...), m), cfg.MetadataCacheTTL), nil
}

func countLookups(base videos.Provider, m *metrics.Metrics) videos.Provider {
	return videos.ProviderFunc(func(ctx context.Context, url string) (videos.Metadata, error) {
		meta, err := base.Lookup(ctx, url)
		m.YouTubeLookup(lookupOutcome(err))
		return meta, err
	})
}

func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, videos.ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, videos.ErrVideoNotFound):
		return "not_found"
	case errors.Is(err, videos.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// newHandler builds the routed handler. Metrics wraps the mux directly so the
// matched pattern is visible; CORS answers preflight requests before routing.
func newHandler(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, deps handlers.Dependencies) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	return middleware.Chain(m.Middleware(mux),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
	)
}
