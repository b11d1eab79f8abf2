package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hotube/backend/internal/accounts"
	"github.com/hotube/backend/internal/auth"
	"github.com/hotube/backend/internal/comments"
	"github.com/hotube/backend/internal/repositories"
	"github.com/hotube/backend/internal/videos"
)

type testEnv struct {
	store   *repositories.MemoryStore
	handler http.Handler
}

func newTestEnv(t *testing.T, mutate ...func(*Dependencies)) *testEnv {
	t.Helper()

	store := repositories.NewMemoryStore()
	users := store.Users()
	deps := Dependencies{
		Videos:   videos.NewCatalog(store.Videos()),
		Accounts: accounts.NewService(users, accounts.WithHashCost(bcrypt.MinCost)),
		Comments: comments.NewService(store.Comments(), users, auth.Policy{}),
		VideoMetadata: videos.ProviderFunc(func(ctx context.Context, url string) (videos.Metadata, error) {
			if videos.ExtractVideoID(url) == "" {
				return videos.Metadata{}, videos.ErrInvalidURL
			}
			return videos.Metadata{
				VideoID:         "dQw4w9WgXcQ",
				Title:           "Never Gonna Give You Up",
				PublishedAt:     time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC),
				DurationSeconds: 213,
			}, nil
		}),
	}
	for _, m := range mutate {
		m(&deps)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return &testEnv{store: store, handler: mux}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := env.do(t, http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusOK)
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected json content type got %s", got)
		}
		if body := decodeBody[map[string]any](t, rec); body["status"] != "ok" {
			t.Fatalf("unexpected health body %v", body)
		}
	}

	rec := env.do(t, http.MethodPost, "/health", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestHealthReportsFailingChecks(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) {
		d.HealthChecks = map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}
	})

	rec := env.do(t, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	body := decodeBody[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, rec)
	if body.Status != "degraded" || body.Checks["database"] != "ok" || body.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected health body %+v", body)
	}
}

func TestMetricsRouteIsOptional(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/metrics", nil), http.StatusNotFound)

	env = newTestEnv(t, func(d *Dependencies) {
		d.Metrics = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) })
	})
	expectStatus(t, env.do(t, http.MethodGet, "/metrics", nil), http.StatusOK)
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func TestAuthRoutesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.AuthLimiter = denyLimiter{} })

	expectStatus(t, env.do(t, http.MethodPost, "/login", loginRequest{UserID: "x", Password: "y"}), http.StatusTooManyRequests)
	expectStatus(t, env.do(t, http.MethodPost, "/api/register", registerRequest{}), http.StatusTooManyRequests)
	expectStatus(t, env.do(t, http.MethodGet, "/videos", nil), http.StatusOK)
}

func TestLookup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/youtube/lookup?url=https://youtu.be/dQw4w9WgXcQ", nil)
	expectStatus(t, rec, http.StatusOK)
	body := decodeBody[lookupResponse](t, rec)
	if body.VideoID != "dQw4w9WgXcQ" || body.Type != "video" || body.UploadedAt != "2009-10-25" || body.Year != 2009 {
		t.Fatalf("unexpected lookup body %+v", body)
	}
	if body.YoutubeURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" || body.Tags == nil {
		t.Fatalf("unexpected lookup body %+v", body)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/youtube/lookup", nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/youtube/lookup?url=https://vimeo.com/1", nil), http.StatusBadRequest)

	env = newTestEnv(t, func(d *Dependencies) {
		d.VideoMetadata = videos.ProviderFunc(func(context.Context, string) (videos.Metadata, error) {
			return videos.Metadata{}, errors.New("quota exceeded")
		})
	})
	expectStatus(t, env.do(t, http.MethodGet, "/youtube/lookup?url=dQw4w9WgXcQ", nil), http.StatusBadGateway)

	env = newTestEnv(t, func(d *Dependencies) {
		d.VideoMetadata = videos.ProviderFunc(func(context.Context, string) (videos.Metadata, error) {
			return videos.Metadata{}, videos.ErrVideoNotFound
		})
	})
	expectStatus(t, env.do(t, http.MethodGet, "/youtube/lookup?url=dQw4w9WgXcQ", nil), http.StatusNotFound)

	env = newTestEnv(t, func(d *Dependencies) { d.VideoMetadata = videos.Fallback() })
	expectStatus(t, env.do(t, http.MethodGet, "/youtube/lookup?url=dQw4w9WgXcQ", nil), http.StatusServiceUnavailable)

	env = newTestEnv(t, func(d *Dependencies) { d.VideoMetadata = nil })
	expectStatus(t, env.do(t, http.MethodGet, "/youtube/lookup?url=dQw4w9WgXcQ", nil), http.StatusServiceUnavailable)
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/videos", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decodeBody[errorResponse](t, rec); body.Error != "invalid request body" {
		t.Fatalf("unexpected error %q", body.Error)
	}

	req = httptest.NewRequest(http.MethodPost, "/login", http.NoBody)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}
