package repositories

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hotube/backend/internal/models"
)

type memoryVideo struct {
	video models.Video
	seq   int64
}

type memoryComment struct {
	comment models.Comment
	seq     int64
}

// MemoryStore keeps videos, users and comments in process memory. It backs
// local development and tests, and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	videos   map[string]memoryVideo
	users    map[string]models.User
	comments map[string]memoryComment
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos:   make(map[string]memoryVideo),
		users:    make(map[string]models.User),
		comments: make(map[string]memoryComment),
	}
}

// Videos returns the video repository view of the store.
func (s *MemoryStore) Videos() *MemoryVideoRepository { return &MemoryVideoRepository{s: s} }

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s: s} }

// Comments returns the comment repository view of the store.
func (s *MemoryStore) Comments() *MemoryCommentRepository { return &MemoryCommentRepository{s: s} }

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneVideo(v models.Video) models.Video {
	v.Tags = slices.Clone(emptyIfNil(v.Tags))
	return v
}

func cloneUser(u models.User) models.User {
	u.LikedVideos = slices.Clone(emptyIfNil(u.LikedVideos))
	u.WatchedVideos = slices.Clone(emptyIfNil(u.WatchedVideos))
	return u
}

func cloneComment(c models.Comment) models.Comment {
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

// MemoryVideoRepository implements VideoRepository on a MemoryStore.
type MemoryVideoRepository struct{ s *MemoryStore }

func (r *MemoryVideoRepository) List(_ context.Context) ([]models.Video, error) {
	r.s.mu.RLock()
	entries := make([]memoryVideo, 0, len(r.s.videos))
	for _, e := range r.s.videos {
		entries = append(entries, e)
	}
	r.s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].video.CreatedAt.Equal(entries[j].video.CreatedAt) {
			return entries[i].video.CreatedAt.After(entries[j].video.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	videos := make([]models.Video, 0, len(entries))
	for _, e := range entries {
		videos = append(videos, cloneVideo(e.video))
	}
	return videos, nil
}

func (r *MemoryVideoRepository) Get(_ context.Context, id string) (models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return cloneVideo(e.video), nil
}

func (r *MemoryVideoRepository) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.videos[video.ID]; exists {
		return ErrConflict
	}
	r.s.videos[video.ID] = memoryVideo{video: cloneVideo(video), seq: r.s.nextSeq()}
	return nil
}

func (r *MemoryVideoRepository) Update(_ context.Context, video models.Video) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.videos[video.ID]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	video.CreatedAt = e.video.CreatedAt
	video.ArchivedThumbnailURL = e.video.ArchivedThumbnailURL
	e.video = cloneVideo(video)
	r.s.videos[video.ID] = e
	return cloneVideo(e.video), nil
}

func (r *MemoryVideoRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.videos, id)

	for commentID, e := range r.s.comments {
		if e.comment.VideoID == id {
			delete(r.s.comments, commentID)
		}
	}

	for userID, u := range r.s.users {
		if !u.HasLiked(id) && !u.HasWatched(id) {
			continue
		}
		u.LikedVideos = slices.DeleteFunc(slices.Clone(u.LikedVideos), func(v string) bool { return v == id })
		u.WatchedVideos = slices.DeleteFunc(slices.Clone(u.WatchedVideos), func(v string) bool { return v == id })
		r.s.users[userID] = u
	}
	return nil
}

func (r *MemoryVideoRepository) SetArchivedThumbnail(_ context.Context, id, location string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.videos[id]
	if !ok {
		return ErrNotFound
	}
	e.video.ArchivedThumbnailURL = location
	r.s.videos[id] = e
	return nil
}

// MemoryUserRepository implements UserRepository on a MemoryStore.
type MemoryUserRepository struct{ s *MemoryStore }

func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[user.ID]; exists {
		return ErrConflict
	}
	for _, existing := range r.s.users {
		if existing.UserID == user.UserID {
			return ErrConflict
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) FindByUserID(_ context.Context, userID string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.UserID == userID {
			return cloneUser(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id, name, title string, category models.Category, updatedAt time.Time) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	u.Name = name
	u.Title = title
	u.Category = category
	u.UpdatedAt = updatedAt
	r.s.users[id] = u
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	r.s.users[id] = u
	return nil
}

func (r *MemoryUserRepository) ToggleLike(_ context.Context, id, videoID string, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return false, ErrNotFound
	}

	liked := !u.HasLiked(videoID)
	if liked {
		u.LikedVideos = append(slices.Clone(u.LikedVideos), videoID)
	} else {
		u.LikedVideos = slices.DeleteFunc(slices.Clone(u.LikedVideos), func(v string) bool { return v == videoID })
	}
	u.UpdatedAt = updatedAt
	r.s.users[id] = u
	return liked, nil
}

func (r *MemoryUserRepository) AddWatched(_ context.Context, id, videoID string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	if !u.HasWatched(videoID) {
		u.WatchedVideos = append(slices.Clone(u.WatchedVideos), videoID)
		u.UpdatedAt = updatedAt
		r.s.users[id] = u
	}
	return nil
}

// MemoryCommentRepository implements CommentRepository on a MemoryStore.
type MemoryCommentRepository struct{ s *MemoryStore }

func (r *MemoryCommentRepository) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.comments[comment.ID]; exists {
		return ErrConflict
	}
	r.s.comments[comment.ID] = memoryComment{comment: cloneComment(comment), seq: r.s.nextSeq()}
	return nil
}

func (r *MemoryCommentRepository) Get(_ context.Context, id string) (models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return cloneComment(e.comment), nil
}

func (r *MemoryCommentRepository) ListByVideo(_ context.Context, videoID string, category models.Category) ([]models.Comment, error) {
	r.s.mu.RLock()
	var entries []memoryComment
	for _, e := range r.s.comments {
		if e.comment.VideoID != videoID {
			continue
		}
		if category != "" && e.comment.UserCategory != category {
			continue
		}
		entries = append(entries, e)
	}
	r.s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].comment.CreatedAt.Equal(entries[j].comment.CreatedAt) {
			return entries[i].comment.CreatedAt.After(entries[j].comment.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	comments := make([]models.Comment, 0, len(entries))
	for _, e := range entries {
		comments = append(comments, cloneComment(e.comment))
	}
	return comments, nil
}

func (r *MemoryCommentRepository) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	e.comment.Content = content
	e.comment.UpdatedAt = &updatedAt
	r.s.comments[id] = e
	return cloneComment(e.comment), nil
}

func (r *MemoryCommentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

var (
	_ VideoRepository   = (*MemoryVideoRepository)(nil)
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ CommentRepository = (*MemoryCommentRepository)(nil)
)
