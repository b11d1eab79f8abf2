// Package comments implements category-scoped video comments.
package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hotube/backend/internal/apperr"
	"github.com/hotube/backend/internal/auth"
	"github.com/hotube/backend/internal/models"
	"github.com/hotube/backend/internal/repositories"
)

// UserLookup resolves comment authors and requesters.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Service owns comment visibility and ownership rules.
type Service struct {
	comments repositories.CommentRepository
	users    UserLookup
	policy   auth.Policy
	now      func() time.Time
	newID    func() string
}

// NewService constructs a comment service.
func NewService(comments repositories.CommentRepository, users UserLookup, policy auth.Policy) *Service {
	return &Service{
		comments: comments,
		users:    users,
		policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithClock overrides the time source and returns s.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var errCommentNotFound = apperr.NotFound("comment not found")

// Create stores a comment with a snapshot of the author's name, title and category.
func (s *Service) Create(ctx context.Context, videoID, userID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if videoID == "" || userID == "" || content == "" {
		return models.Comment{}, apperr.Validation("videoId, userId and content are required")
	}

	author, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFound("user not found")
		}
		return models.Comment{}, apperr.Internal("failed to load author", err)
	}

	comment := models.Comment{
		ID:           s.newID(),
		VideoID:      videoID,
		UserID:       author.ID,
		UserName:     author.Name,
		UserTitle:    author.Title,
		UserCategory: author.Category,
		Content:      content,
		CreatedAt:    s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, apperr.Internal("failed to save comment", err)
	}
	return comment, nil
}

// List returns comments on videoID, newest first. Admins and sub-admins see
// everything; other roles only see comments written in their category.
func (s *Service) List(ctx context.Context, videoID, category, role string) ([]models.Comment, error) {
	if videoID == "" {
		return nil, apperr.Validation("videoId is required")
	}

	scope := models.Category("")
	if !models.Role(role).SeesAllComments() {
		if category == "" {
			return nil, apperr.Validation("category is required")
		}
		scope = models.Category(category)
	}

	comments, err := s.comments.ListByVideo(ctx, videoID, scope)
	if err != nil {
		return nil, apperr.Internal("failed to load comments", err)
	}
	return comments, nil
}

// Update replaces the content of a comment. Only the author may edit.
func (s *Service) Update(ctx context.Context, commentID, userID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return models.Comment{}, apperr.Validation("userId and content are required")
	}

	comment, err := s.get(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}

	resource := auth.Resource{Kind: auth.ResourceComment, OwnerID: comment.UserID}
	if err := s.policy.Authorize(auth.Principal{ID: userID}, resource, auth.ActionUpdate); err != nil {
		return models.Comment{}, err
	}

	updated, err := s.comments.UpdateContent(ctx, commentID, content, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, errCommentNotFound
		}
		return models.Comment{}, apperr.Internal("failed to update comment", err)
	}
	return updated, nil
}

// Delete removes a comment when the requester is its author or an admin.
func (s *Service) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.get(ctx, commentID)
	if err != nil {
		return err
	}

	requester := auth.Principal{ID: userID}
	if userID != "" && userID != comment.UserID {
		user, err := s.users.FindByID(ctx, userID)
		switch {
		case err == nil:
			requester.Role = user.Role
		case !errors.Is(err, repositories.ErrNotFound):
			return apperr.Internal("failed to load requester", err)
		}
	}

	resource := auth.Resource{Kind: auth.ResourceComment, OwnerID: comment.UserID}
	if err := s.policy.Authorize(requester, resource, auth.ActionDelete); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errCommentNotFound
		}
		return apperr.Internal("failed to delete comment", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (models.Comment, error) {
	if id == "" {
		return models.Comment{}, errCommentNotFound
	}
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, errCommentNotFound
		}
		return models.Comment{}, apperr.Internal("failed to load comment", err)
	}
	return comment, nil
}
