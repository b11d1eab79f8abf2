package videos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hotube/backend/internal/logging"
	"github.com/hotube/backend/internal/models"
)

// maxThumbnailBytes caps a single thumbnail download.
const maxThumbnailBytes = 5 << 20

// ThumbnailStorage persists thumbnail bytes and returns their public location.
type ThumbnailStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ThumbnailRecorder stores the archived location on the video.
type ThumbnailRecorder interface {
	RecordArchivedThumbnail(ctx context.Context, id, location string) error
}

// ArchiverConfig controls the worker pool.
type ArchiverConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
	Client    *http.Client
	// OnResult, when set, observes the outcome of every job: "archived" or "failed".
	OnResult func(outcome string)
}

// ThumbnailArchiver copies video thumbnails into object storage in the background.
type ThumbnailArchiver struct {
	storage  ThumbnailStorage
	recorder ThumbnailRecorder
	client   *http.Client
	timeout  time.Duration
	onResult func(string)
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan models.Video
	wg     sync.WaitGroup
}

// NewThumbnailArchiver starts cfg.Workers workers draining a queue of cfg.QueueSize videos.
func NewThumbnailArchiver(storage ThumbnailStorage, recorder ThumbnailRecorder, cfg ArchiverConfig, logger *slog.Logger) *ThumbnailArchiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.OnResult == nil {
		cfg.OnResult = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &ThumbnailArchiver{
		storage:  storage,
		recorder: recorder,
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		onResult: cfg.OnResult,
		logger:   logger,
		jobs:     make(chan models.Video, cfg.QueueSize),
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}
	return a
}

// Enqueue schedules the video's thumbnail without blocking. It reports false
// when the queue is full or the archiver has shut down.
func (a *ThumbnailArchiver) Enqueue(ctx context.Context, video models.Video) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}

	select {
	case a.jobs <- video:
		return true
	default:
		logging.FromContext(ctx).Warn("thumbnail archive queue full", "id", video.ID)
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (a *ThumbnailArchiver) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (a *ThumbnailArchiver) worker() {
	defer a.wg.Done()

	for video := range a.jobs {
		if err := a.archive(video); err != nil {
			a.logger.Error("thumbnail archive failed", "id", video.ID, "url", video.ThumbnailURL, "error", err)
			a.onResult("failed")
			continue
		}
		a.onResult("archived")
	}
}

func (a *ThumbnailArchiver) archive(video models.Video) (err error) {
	if a.storage == nil || a.recorder == nil {
		return ErrStorageUnavailable
	}

	ctx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), a.logger), a.timeout)
	defer cancel()
	ctx, span := logging.StartSpan(ctx, "videos.archive_thumbnail")
	defer func() {
		span.Fail(err)
		span.End()
	}()

	body, err := a.download(ctx, video.ThumbnailURL)
	if err != nil {
		return err
	}

	location, err := a.storage.Save(ctx, "thumbnails/"+video.ID+".jpg", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}

	if err := a.recorder.RecordArchivedThumbnail(ctx, video.ID, location); err != nil {
		return fmt.Errorf("record thumbnail: %w", err)
	}
	return nil
}

func (a *ThumbnailArchiver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build thumbnail request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download thumbnail: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if len(body) > maxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail exceeds %d bytes", maxThumbnailBytes)
	}
	return body, nil
}
